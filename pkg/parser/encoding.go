package parser

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// Encoding converts between the bytes stored in a file and Go strings.
// The zero value passes bytes through unchanged, which is correct for UTF-8
// and ASCII data.
type Encoding struct {
	name string
	enc  encoding.Encoding
}

// UTF8 is the default pass-through encoding.
var UTF8 = Encoding{name: "utf-8"}

// LookupEncoding returns the encoding registered under name. Names are matched
// case-insensitively against the IANA registry; "latin1" is accepted as an alias
// of ISO-8859-1.
func LookupEncoding(name string) (Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf-8", "utf8", "ascii", "us-ascii":
		if key == "" {
			key = "utf-8"
		}
		return Encoding{name: key}, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return Encoding{name: "iso-8859-1", enc: charmap.ISO8859_1}, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil {
		return Encoding{}, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	if enc == nil {
		return Encoding{}, fmt.Errorf("%w: %s is not supported", ErrUnknownEncoding, name)
	}
	return Encoding{name: key, enc: enc}, nil
}

// Name returns the canonical name the encoding was looked up with.
func (e Encoding) Name() string {
	if e.name == "" {
		return UTF8.name
	}
	return e.name
}

// Decode converts raw file bytes to a string. Undecodable input is returned as-is.
func (e Encoding) Decode(b []byte) string {
	if e.enc == nil {
		return string(b)
	}
	out, err := e.enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// Encode converts a string back to file bytes.
func (e Encoding) Encode(s string) []byte {
	if e.enc == nil {
		return []byte(s)
	}
	out, err := e.enc.NewEncoder().String(s)
	if err != nil {
		return []byte(s)
	}
	return []byte(out)
}
