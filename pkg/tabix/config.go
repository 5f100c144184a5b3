package tabix

import (
	"fmt"
	"io"
	"runtime"

	"github.com/biogo/hts/bgzf"
	"github.com/sirupsen/logrus"

	"github.com/scttfrdmn/tabix-go/pkg/parser"
)

// Constants
const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)

// maxBlockSize is the largest decompressed BGZF block.
const maxBlockSize = bgzf.MaxBlockSize

// Config holds options for opening an indexed file
type Config struct {
	// IndexPath overrides the derived <data>.tbi / <data>.csi path.
	IndexPath string

	// Parser is the default parser for FetchParsed (default: Tuple).
	Parser parser.Parser

	// Encoding names the text encoding of the data file (default: utf-8).
	Encoding string

	// Strict stops iteration at the first malformed record instead of skipping it.
	Strict bool

	// MetaChar overrides the header marker stored in the index when non-zero.
	MetaChar byte

	// BlockCacheSize is the number of decompressed blocks cached per reader
	// (default: derived from available memory, 0 disables the cache).
	BlockCacheSize int

	// Workers bounds the number of regions queried concurrently by callers that
	// fan out (default: performance cores).
	Workers int

	// Logger receives lifecycle and skipped-record messages (default: logrus standard logger).
	Logger logrus.FieldLogger

	// OnMalformed is called for every record skipped under the tolerant policy.
	OnMalformed func(err error)
}

// NewConfig creates a Config with smart defaults
func NewConfig() *Config {
	memStats := getSystemMemory()

	// Each iterator owns a reader, so keep the per-reader cache to a small
	// fraction of available memory.
	cacheBlocks := int(memStats.Available / 4096 / maxBlockSize)
	cacheBlocks = max(8, min(cacheBlocks, 256))

	return &Config{
		Encoding:       parser.UTF8.Name(),
		BlockCacheSize: cacheBlocks,
		Workers:        detectOptimalWorkers(),
		Logger:         logrus.StandardLogger(),
	}
}

// Validate checks configuration and fills unset fields
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	if c.BlockCacheSize < 0 {
		return fmt.Errorf("block cache size must be >= 0")
	}
	if c.Workers > 64 {
		c.logger().Warnf("workers > 64 (%d) may cause diminishing returns", c.Workers)
	}
	if _, err := parser.LookupEncoding(c.Encoding); err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}
	if c.Parser != nil && c.Encoding != "" && c.Parser.Encoding().Name() != c.encoding().Name() {
		c.logger().WithField("parser", c.Parser.Format()).
			Warnf("parser encoding %s differs from file encoding %s", c.Parser.Encoding().Name(), c.Encoding)
	}
	return nil
}

// ShowConfig prints the effective configuration
func (c *Config) ShowConfig(w io.Writer) {
	memStats := getSystemMemory()

	fmt.Fprintf(w, "System Information:\n")
	fmt.Fprintf(w, "  Total RAM: %.1f GB\n", float64(memStats.Total)/float64(GB))
	fmt.Fprintf(w, "  Available RAM: %.1f GB\n", float64(memStats.Available)/float64(GB))

	totalCores := runtime.NumCPU()
	optimalWorkers := detectOptimalWorkers()
	if optimalWorkers < totalCores {
		fmt.Fprintf(w, "  CPU cores: %d total (%d usable)\n", totalCores, optimalWorkers)
	} else {
		fmt.Fprintf(w, "  CPU cores: %d\n", totalCores)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Configuration:\n")
	if c.IndexPath != "" {
		fmt.Fprintf(w, "  Index: %s\n", c.IndexPath)
	}
	format := parser.FormatTuple
	if c.Parser != nil {
		format = c.Parser.Format()
	}
	fmt.Fprintf(w, "  Parser: %s\n", format)
	fmt.Fprintf(w, "  Encoding: %s\n", c.encoding().Name())
	if c.Strict {
		fmt.Fprintf(w, "  Malformed records: fail\n")
	} else {
		fmt.Fprintf(w, "  Malformed records: skip\n")
	}
	fmt.Fprintf(w, "  Block cache: %d blocks (up to %.1f MB per reader)\n",
		c.BlockCacheSize, float64(c.BlockCacheSize*maxBlockSize)/float64(MB))
	fmt.Fprintf(w, "  Workers: %d\n", c.Workers)
	fmt.Fprintf(w, "\n")
}

func (c *Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func (c *Config) encoding() parser.Encoding {
	enc, err := parser.LookupEncoding(c.Encoding)
	if err != nil {
		return parser.UTF8
	}
	return enc
}

// SystemMemory holds system memory information
type SystemMemory struct {
	Total     int64
	Available int64
}

// getSystemMemory returns system memory stats
func getSystemMemory() SystemMemory {
	total, available := detectSystemMemory()

	// Fallback to sensible defaults if detection fails
	if total == 0 {
		total = 16 * GB
		available = 12 * GB
	}
	return SystemMemory{Total: total, Available: available}
}
