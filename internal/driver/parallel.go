// Package driver loads tree description files in parallel.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sprout/internal/logging"
	"sprout/internal/sexp"
	"sprout/internal/symbols"
	"sprout/internal/testkit"
	"sprout/internal/tree"
)

// Ext is the extension of tree description files.
const Ext = ".tree"

// Options controls LoadFiles.
type Options struct {
	// Table is the shared symbol table; a fresh one is used when nil.
	Table *symbols.SyncTable
	// Strict rejects names missing from Table.
	Strict bool
	// Check runs the invariant checker over every loaded tree.
	Check bool
	// Jobs limits parallelism; GOMAXPROCS when <= 0.
	Jobs int
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Path  string
	Trees []*tree.Node
	Err   error // ошибка чтения, разбора или проверки инвариантов
}

// Result holds per-file results in input order.
type Result struct {
	Table *symbols.SyncTable
	Files []FileResult
}

// Failed returns the number of files that produced an error.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Trees returns all loaded trees in input order.
func (r *Result) Trees() []*tree.Node {
	var out []*tree.Node
	for _, f := range r.Files {
		out = append(out, f.Trees...)
	}
	return out
}

// Release drops every loaded tree.
func (r *Result) Release() {
	for i := range r.Files {
		for _, n := range r.Files[i].Trees {
			tree.Release(n)
		}
		r.Files[i].Trees = nil
	}
}

// ListFiles returns the sorted description files under dir.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, Ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// детерминированный порядок
	sort.Strings(files)
	return files, nil
}

// ExpandPaths replaces directories in paths by the description files they
// contain. Plain files are kept as given.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := ListFiles(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, files...)
	}
	return out, nil
}

// LoadFiles reads and parses paths concurrently. Per-file problems are
// reported in FileResult.Err; the returned error is only set when ctx is
// cancelled. The caller owns the trees and releases them with
// Result.Release.
func LoadFiles(ctx context.Context, paths []string, opts Options) (*Result, error) {
	log := logging.FromContext(ctx)
	if opts.Table == nil {
		opts.Table = symbols.NewSyncTable(nil)
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	res := &Result{Table: opts.Table, Files: make([]FileResult, len(paths))}
	if len(paths) == 0 {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			// индекс i уникален для горутины, мьютекс не нужен
			res.Files[i] = loadFile(path, opts)
			if err := res.Files[i].Err; err != nil {
				log.Debug("load failed", logging.FieldPath, path, logging.FieldError, err)
			} else {
				log.Debug("loaded", logging.FieldPath, path, logging.FieldTrees, len(res.Files[i].Trees))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		res.Release()
		return nil, err
	}
	log.Debug("load finished",
		logging.FieldFiles, len(paths),
		logging.FieldJobs, jobs,
		logging.FieldDuration, time.Since(start))
	return res, nil
}

func loadFile(path string, opts Options) FileResult {
	// #nosec G304 -- path is provided by the caller
	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	trees, err := sexp.ParseAll(src, sexp.Options{Table: opts.Table, Strict: opts.Strict})
	if err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("%s:%w", path, err)}
	}
	if opts.Check {
		for i, n := range trees {
			if err := testkit.CheckTree(n); err != nil {
				for _, t := range trees {
					tree.Release(t)
				}
				return FileResult{Path: path, Err: fmt.Errorf("%s: tree %d: %w", path, i, err)}
			}
		}
	}
	return FileResult{Path: path, Trees: trees}
}
