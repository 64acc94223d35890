// Package extract pulls many files out of a dat container at once.
//
// An Extractor fans descriptors out over a bounded number of workers,
// keeps recently extracted payloads in an LRU cache keyed by data offset
// and records a content digest for every payload it returns.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/ossyrian/sqparse/internal/parser"
	"github.com/ossyrian/sqparse/internal/sqpack"
)

const (
	// DefaultWorkers is the default number of concurrent extractions.
	DefaultWorkers = 4

	// DefaultCacheSize is the default number of payloads kept in memory.
	DefaultCacheSize = 64
)

// Result describes one extracted file.
type Result struct {
	Descriptor sqpack.OffsetDescriptor
	Size       int
	Digest     digest.Digest
	Cached     bool   // payload was served from the cache
	Path       string // output file, empty when nothing was written
}

// Extractor extracts files through a parser.DatReader.
type Extractor struct {
	reader    *parser.DatReader
	workers   int
	cacheSize int
	outputDir string
	logger    *slog.Logger

	cache *lru.Cache[uint32, []byte]
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithWorkers sets the number of concurrent extractions.
// Values < 1 force serial extraction.
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// WithCacheSize sets how many payloads are cached. Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(e *Extractor) {
		e.cacheSize = n
	}
}

// WithOutputDir makes ExtractAll write every payload to dir.
func WithOutputDir(dir string) Option {
	return func(e *Extractor) {
		e.outputDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor reading from r.
func New(r *parser.DatReader, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		reader:    r,
		workers:   DefaultWorkers,
		cacheSize: DefaultCacheSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.cacheSize > 0 {
		cache, err := lru.New[uint32, []byte](e.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create payload cache: %w", err)
		}
		e.cache = cache
	}

	return e, nil
}

// Extract returns the payload of a single file. Cached payloads are shared
// between callers and must not be modified.
func (e *Extractor) Extract(desc sqpack.OffsetDescriptor) ([]byte, error) {
	payload, _, err := e.extract(desc)
	return payload, err
}

func (e *Extractor) extract(desc sqpack.OffsetDescriptor) ([]byte, bool, error) {
	if e.cache != nil {
		if payload, ok := e.cache.Get(desc.DataOffset); ok {
			return payload, true, nil
		}
	}

	payload, err := e.reader.ReadFile(desc)
	if err != nil {
		return nil, false, err
	}

	if e.cache != nil {
		e.cache.Add(desc.DataOffset, payload)
	}
	return payload, false, nil
}

// ExtractAll extracts every descriptor and returns results in input order.
// The first failure cancels the remaining extractions and is returned
// without any results.
func (e *Extractor) ExtractAll(ctx context.Context, descs []sqpack.OffsetDescriptor) ([]Result, error) {
	if e.outputDir != "" {
		if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	results := make([]Result, len(descs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, desc := range descs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := e.extractOne(desc)
			if err != nil {
				return fmt.Errorf("failed to extract %s: %w", desc, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Extractor) extractOne(desc sqpack.OffsetDescriptor) (Result, error) {
	payload, cached, err := e.extract(desc)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Descriptor: desc,
		Size:       len(payload),
		Digest:     digest.FromBytes(payload),
		Cached:     cached,
	}

	if e.outputDir != "" {
		res.Path = filepath.Join(e.outputDir, FileName(desc))
		if err := os.WriteFile(res.Path, payload, 0o644); err != nil {
			return Result{}, fmt.Errorf("failed to write %s: %w", res.Path, err)
		}
	}

	e.logger.Debug("extracted",
		"offset", desc.String(),
		"size", res.Size,
		"digest", res.Digest.String(),
		"cached", res.Cached,
	)

	return res, nil
}

// FileName returns the output file name used for desc.
func FileName(desc sqpack.OffsetDescriptor) string {
	if desc.FolderHash == 0 && desc.FileHash == 0 {
		return fmt.Sprintf("%08x.bin", desc.DataOffset)
	}
	return fmt.Sprintf("%08x_%08x_%08x.bin", desc.FolderHash, desc.FileHash, desc.DataOffset)
}
