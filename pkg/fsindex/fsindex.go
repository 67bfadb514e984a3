package fsindex

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/arrmap/pkg/hardlink"
	"github.com/autobrr/arrmap/pkg/logger"
)

type Indexer struct {
	workers int
	log     *logrus.Entry
}

// New returns an Indexer. workers is the fastwalk worker count per root, 0 keeps
// the fastwalk default.
func New(workers int) *Indexer {
	return &Indexer{
		workers: workers,
		log:     logger.GetLogger("fsindex"),
	}
}

// Index walks every root and materializes the records. The only errors returned
// are context errors; everything else becomes a Warning.
func (ix *Indexer) Index(ctx context.Context, roots []Root) (*Result, error) {
	var (
		mu  sync.Mutex
		res = &Result{}
	)

	stats, warnings, err := ix.walk(ctx, roots, func(r FileRecord) {
		mu.Lock()
		res.Records = append(res.Records, r)
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	res.Roots = stats
	res.Warnings = warnings

	ix.log.Debugf("Indexed %d files with %d warnings across %d roots", len(res.Records), len(res.Warnings), len(roots))
	return res, nil
}

// Walk emits every regular file below roots. emit is called from multiple
// goroutines and must be safe for concurrent use.
func (ix *Indexer) Walk(ctx context.Context, roots []Root, emit func(FileRecord)) ([]Warning, error) {
	_, warnings, err := ix.walk(ctx, roots, emit)
	return warnings, err
}

func (ix *Indexer) walk(ctx context.Context, roots []Root, emit func(FileRecord)) ([]RootStat, []Warning, error) {
	roots = DedupeRoots(roots)

	var (
		wmu      sync.Mutex
		warnings []Warning
	)

	warn := func(w Warning) {
		wmu.Lock()
		warnings = append(warnings, w)
		wmu.Unlock()
	}

	stats := make([]RootStat, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			st, err := ix.walkRoot(gctx, root, emit, warn)
			stats[i] = st
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	// errgroup swallows a parent cancel that raced the last root
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sortWarnings(warnings)
	return stats, dedupeWarnings(warnings), nil
}

func (ix *Indexer) walkRoot(ctx context.Context, root Root, emit func(FileRecord), warn func(Warning)) (RootStat, error) {
	start := time.Now()
	st := RootStat{Root: root}

	info, err := os.Lstat(root.Path)
	switch {
	case err != nil:
		kind := WarnStat
		if errors.Is(err, fs.ErrNotExist) {
			kind = WarnMissingRoot
		} else if errors.Is(err, fs.ErrPermission) {
			kind = WarnPermission
		}
		ix.log.WithError(err).Warnf("Skipping root %q", root.Path)
		warn(Warning{Kind: kind, Root: root.Path, Path: root.Path, Message: err.Error()})
		st.Skipped = true
		return st, nil
	case info.Mode()&fs.ModeSymlink != 0:
		ix.log.Warnf("Root is a symlink, not following: %q", root.Path)
		warn(Warning{Kind: WarnSymlink, Root: root.Path, Path: root.Path})
		st.Skipped = true
		return st, nil
	case !info.IsDir():
		warn(Warning{Kind: WarnStat, Root: root.Path, Path: root.Path, Message: "not a directory"})
		st.Skipped = true
		return st, nil
	}

	var files, bytes atomic.Int64

	conf := &fastwalk.Config{
		Follow:     false,
		NumWorkers: ix.workers,
	}

	err = fastwalk.Walk(conf, root.Path, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			kind := WarnStat
			if errors.Is(err, fs.ErrPermission) {
				kind = WarnPermission
			}
			ix.log.Tracef("Skipping unreadable path %q: %v", path, err)
			warn(Warning{Kind: kind, Root: root.Path, Path: path, Message: err.Error()})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		typ := d.Type()
		switch {
		case typ&fs.ModeSymlink != 0:
			warn(Warning{Kind: WarnSymlink, Root: root.Path, Path: path})
			return nil
		case d.IsDir():
			return nil
		case !typ.IsRegular():
			ix.log.Tracef("Skipping non-regular file: %q", path)
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// removed mid-walk
				return nil
			}
			warn(Warning{Kind: WarnStat, Root: root.Path, Path: path, Message: err.Error()})
			return nil
		}

		id, nlink, err := hardlink.LinkInfo(fi, path)
		if err != nil {
			warn(Warning{Kind: WarnStat, Root: root.Path, Path: path, Message: err.Error()})
			return nil
		}

		files.Add(1)
		bytes.Add(fi.Size())

		emit(FileRecord{
			Path:     filepath.Clean(path),
			Device:   id.Device,
			Inode:    id.Inode,
			Nlink:    nlink,
			Size:     fi.Size(),
			ModTime:  fi.ModTime(),
			Root:     root.Path,
			RootKind: root.Kind,
		})
		return nil
	})

	st.Files = files.Load()
	st.Bytes = bytes.Load()
	st.Duration = time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return st, ctxErr
		}
		ix.log.WithError(err).Warnf("Walk of %q ended early", root.Path)
		warn(Warning{Kind: WarnStat, Root: root.Path, Path: root.Path, Message: err.Error()})
	}

	ix.log.Debugf("Walked %q: %d files", root.Path, st.Files)
	return st, nil
}

// DedupeRoots cleans root paths and drops exact duplicates, keeping the first kind seen.
func DedupeRoots(roots []Root) []Root {
	seen := make(map[string]struct{}, len(roots))
	out := make([]Root, 0, len(roots))

	for _, r := range roots {
		r.Path = filepath.Clean(r.Path)
		if _, ok := seen[r.Path]; ok {
			continue
		}
		seen[r.Path] = struct{}{}
		out = append(out, r)
	}

	return out
}

// sortWarnings orders by path and kind. Among equal entries the one from the
// most specific root comes first.
func sortWarnings(w []Warning) {
	sort.Slice(w, func(i, j int) bool {
		if w[i].Path != w[j].Path {
			return w[i].Path < w[j].Path
		}
		if w[i].Kind != w[j].Kind {
			return w[i].Kind < w[j].Kind
		}
		if len(w[i].Root) != len(w[j].Root) {
			return len(w[i].Root) > len(w[j].Root)
		}
		return w[i].Root < w[j].Root
	})
}

// dedupeWarnings drops repeats of (Kind, Path) reported by overlapping roots.
// w must be sorted.
func dedupeWarnings(w []Warning) []Warning {
	var out []Warning
	for _, cur := range w {
		if n := len(out); n > 0 && out[n-1].Kind == cur.Kind && out[n-1].Path == cur.Path {
			continue
		}
		out = append(out, cur)
	}
	return out
}
