// Package analyze wires extraction and classification into the
// per-file pipeline and runs batches of files on a bounded worker
// pool. Within one file operation order is preserved exactly; across
// files there is no ordering requirement and results are returned in
// argument order regardless of completion order.
package analyze

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"lockcheck/internal/classify"
	"lockcheck/internal/config"
	"lockcheck/internal/core"
	"lockcheck/internal/extract"
)

type Analyzer struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Analyzer{cfg: cfg}
}

// AnalyzeSource runs the full pipeline on one migration unit: dialect
// selection, extraction, classification, aggregation.
func (a *Analyzer) AnalyzeSource(filename, src string) (*core.Report, error) {
	opts := extract.Options{PGVersion: a.cfg.PGVersion}

	var (
		ex  extract.Extractor
		err error
	)
	if a.cfg.Dialect != "" {
		ex, err = extract.ForDialect(a.cfg.Dialect, opts)
	} else {
		ex, err = extract.ForFile(filename, opts)
	}
	if err != nil {
		return nil, err
	}

	unit, err := ex.Extract(src)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filename, err)
	}

	res := classify.Run(unit)
	return &core.Report{
		File:    filename,
		Impacts: res.Impacts,
		Risk:    res.Risk,
		Notes:   res.Notes,
		TxFlag:  res.TxFlag,
	}, nil
}

// AnalyzeFile reads and analyzes one migration file.
func (a *Analyzer) AnalyzeFile(path string) (*core.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration: %w", err)
	}
	return a.AnalyzeSource(path, string(data))
}

// FileResult is one batch entry: a report or the isolated error that
// replaced it. One file's failure never aborts the others.
type FileResult struct {
	Path   string
	Report *core.Report
	Err    error
}

// AnalyzeFiles analyzes a batch concurrently, bounded by the configured
// worker count.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Path: path, Err: err}
				return nil
			}
			report, err := a.AnalyzeFile(path)
			results[i] = FileResult{Path: path, Report: report, Err: err}
			return nil
		})
	}
	// Workers never return errors; per-file failures live in results.
	_ = g.Wait()
	return results
}
