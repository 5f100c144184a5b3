package tabix

import (
	"github.com/sirupsen/logrus"

	"github.com/scttfrdmn/tabix-go/pkg/parser"
)

// ParsedIterator parses every raw record of an underlying iterator. Parse
// failures follow the same tolerant or strict policy as coordinate failures.
type ParsedIterator struct {
	it     RecordIterator
	parser parser.Parser
	policy policy
	log    logrus.FieldLogger

	rec     parser.Record
	err     error
	skipped int
}

func newParsedIterator(it RecordIterator, p parser.Parser, pol policy, log logrus.FieldLogger) *ParsedIterator {
	return &ParsedIterator{
		it:     it,
		parser: p,
		policy: pol,
		log:    log.WithField("parser", p.Format()),
	}
}

func (p *ParsedIterator) Next() bool {
	if p.err != nil {
		return false
	}
	for p.it.Next() {
		rec, err := p.parser.Parse(p.it.Record().Line)
		if err == nil {
			p.rec = rec
			return true
		}
		if p.policy.strict {
			p.err = err
			p.rec = nil
			p.it.Close()
			return false
		}
		p.skipped++
		p.log.WithError(err).Warn("skipping unparsable record")
		if p.policy.onMalformed != nil {
			p.policy.onMalformed(err)
		}
	}
	p.rec = nil
	return false
}

// Record returns the current parsed record. It stays valid after Next.
func (p *ParsedIterator) Record() parser.Record { return p.rec }

func (p *ParsedIterator) Err() error {
	if p.err != nil {
		return p.err
	}
	return p.it.Err()
}

func (p *ParsedIterator) State() IteratorState {
	if p.err != nil {
		return StateFailed
	}
	return p.it.State()
}

// Skipped counts records dropped by either the coordinate check or the parser.
func (p *ParsedIterator) Skipped() int { return p.skipped + p.it.Skipped() }

func (p *ParsedIterator) Close() error { return p.it.Close() }

// Parser returns the parser applied to each record.
func (p *ParsedIterator) Parser() parser.Parser { return p.parser }
