package scan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/arrmap/pkg/classify"
	"github.com/autobrr/arrmap/pkg/fsindex"
	"github.com/autobrr/arrmap/pkg/hardlinkfilemap"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/logger"
	"github.com/autobrr/arrmap/pkg/relationship"
)

// Scanner runs exactly one scan. Create a new one for every run.
type Scanner struct {
	opt     Options
	log     *logrus.Entry
	phase   atomic.Int32
	started atomic.Bool
}

func New(opt Options) (*Scanner, error) {
	if len(opt.Roots) == 0 {
		return nil, fmt.Errorf("%w: no roots", ErrInvalidOptions)
	}
	for _, r := range opt.Roots {
		if !filepath.IsAbs(r.Path) {
			return nil, fmt.Errorf("%w: root %q is not absolute", ErrInvalidOptions, r.Path)
		}
	}
	if opt.SourceTimeout < 0 || opt.FilesystemTimeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout", ErrInvalidOptions)
	}

	if opt.Indexer == nil {
		opt.Indexer = fsindex.New(opt.Workers)
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Log == nil {
		opt.Log = logger.GetLogger("scan")
	}

	return &Scanner{opt: opt, log: opt.Log}, nil
}

// Phase is safe to call from any goroutine.
func (s *Scanner) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *Scanner) setPhase(p Phase) {
	s.phase.Store(int32(p))
	s.log.Debugf("Scan phase: %s", p)
	if s.opt.OnPhase != nil {
		s.opt.OnPhase(p)
	}
}

func (s *Scanner) cancel(ctx context.Context) error {
	s.setPhase(PhaseCancelled)
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return ErrCancelled
}

// Run indexes the roots and fetches every source concurrently, then merges and
// classifies the results. Cancelling ctx aborts the scan without a report.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	startedAt := s.opt.Now()
	s.setPhase(PhaseFetching)

	var (
		wg     sync.WaitGroup
		fsRes  *fsindex.Result
		fsErr  error
		fsTime time.Duration
		inv    *inventory.Result
	)

	wg.Add(2)
	go func() {
		defer wg.Done()

		fctx, cancel := ctx, context.CancelFunc(func() {})
		if s.opt.FilesystemTimeout > 0 {
			fctx, cancel = context.WithTimeout(ctx, s.opt.FilesystemTimeout)
		}
		defer cancel()

		start := time.Now()
		fsRes, fsErr = s.opt.Indexer.Index(fctx, s.opt.Roots)
		fsTime = time.Since(start)
	}()
	go func() {
		defer wg.Done()
		inv = inventory.Collect(ctx, s.opt.Sources, inventory.Options{
			Timeout: s.opt.SourceTimeout,
			Mapper:  s.opt.Mapper,
			Mappers: s.opt.Mappers,
		})
	}()
	wg.Wait()

	if ctx.Err() != nil || inv.Cancelled {
		return nil, s.cancel(ctx)
	}

	fsHealth := inventory.Health{Name: FilesystemService, Status: inventory.StatusOK, Duration: fsTime}
	switch {
	case fsErr == nil:
		fsHealth.Tuples = len(fsRes.Records)
	case errors.Is(fsErr, context.DeadlineExceeded):
		fsHealth.Status = inventory.StatusDegraded
		fsHealth.Reason = fmt.Sprintf("timed out after %s", s.opt.FilesystemTimeout)
		s.log.Warnf("Filesystem walk %s, continuing without indexed files", fsHealth.Reason)
		fsRes = &fsindex.Result{}
	default:
		fsHealth.Status = inventory.StatusFailed
		fsHealth.Reason = fsErr.Error()
		s.log.WithError(fsErr).Error("Filesystem walk failed, continuing without indexed files")
		fsRes = &fsindex.Result{}
	}

	s.setPhase(PhaseMerging)

	hfm := hardlinkfilemap.New(fsRes.Records)
	groups := hfm.Groups()
	s.log.Debugf("Mapped %d indexed paths to %d unique files", hfm.Paths(), hfm.Length())
	graph := relationship.Build(groups, inv.Tuples, s.rootPaths())

	if ctx.Err() != nil {
		return nil, s.cancel(ctx)
	}

	s.setPhase(PhaseClassifying)

	orphans := classify.Orphans(graph, s.opt.Ignore, startedAt)
	clusters := classify.CrossSeeds(graph, inv)

	if ctx.Err() != nil {
		return nil, s.cancel(ctx)
	}

	rep := &Report{
		StartedAt:      startedAt,
		Roots:          fsRes.Roots,
		HardlinkGroups: graph.Nodes,
		Orphans:        orphans,
		CrossSeeds:     clusters,
		MissingFiles:   graph.Missing,
		Services:       s.services(inv.Health, fsHealth),
		Warnings:       fsRes.Warnings,
	}

	for _, h := range rep.Services {
		if h.Status != inventory.StatusOK && h.Status != inventory.StatusDisabled {
			rep.Degraded = true
		}
	}

	rep.Stats = buildStats(graph, orphans, clusters, inv)
	rep.Duration = s.opt.Now().Sub(startedAt)

	s.setPhase(PhaseComplete)

	s.log.Infof("Scanned %d files (%s unique) in %s: %d orphans (%s reclaimable), %d cross-seed clusters, %d missing files",
		rep.Stats.TotalFiles, humanize.IBytes(uint64(rep.Stats.UniqueSize)), rep.Duration.Round(time.Millisecond),
		rep.Stats.Orphans, humanize.IBytes(uint64(rep.Stats.ReclaimableSize)), rep.Stats.CrossSeedClusters, rep.Stats.MissingFiles)

	return rep, nil
}

func (s *Scanner) rootPaths() []string {
	paths := make([]string, 0, len(s.opt.Roots))
	for _, r := range s.opt.Roots {
		paths = append(paths, filepath.Clean(r.Path))
	}
	return paths
}

func (s *Scanner) services(health []inventory.Health, fs inventory.Health) []inventory.Health {
	out := make([]inventory.Health, 0, len(health)+len(s.opt.Disabled)+1)
	out = append(out, fs)
	out = append(out, health...)

	for name, kind := range s.opt.Disabled {
		out = append(out, inventory.Health{
			Name:   name,
			Kind:   kind,
			Status: inventory.StatusDisabled,
			Reason: "not configured",
		})
	}

	// filesystem first, then by name
	sort.SliceStable(out[1:], func(i, j int) bool { return out[i+1].Name < out[j+1].Name })
	return out
}

func buildStats(g *relationship.Graph, orphans []classify.Orphan,
	clusters []classify.CrossSeedCluster, inv *inventory.Result) Stats {
	st := Stats{
		UniqueFiles:       len(g.Nodes),
		CrossSeedClusters: len(clusters),
		MissingFiles:      len(g.Missing),
		Orphans:           len(orphans),
	}

	for _, n := range g.Nodes {
		st.TotalFiles += n.LinkCount
		st.UniqueSize += n.Size
		st.TotalSize += n.AggregateSize
		if n.IsHardlinked() {
			st.HardlinkGroups++
		}
		for _, r := range n.Records {
			switch r.RootKind {
			case fsindex.RootTorrent:
				st.TorrentFiles++
			case fsindex.RootLibrary:
				st.LibraryFiles++
			}
		}
	}

	for _, o := range orphans {
		st.OrphanSize += o.Size
		st.ReclaimableSize += o.ReclaimableBytes
		if o.Ignored {
			st.IgnoredOrphans++
		}
	}

	for key := range inv.Owners {
		switch key.Kind {
		case inventory.KindTorrent:
			st.Owners.Torrents++
		case inventory.KindMovie:
			st.Owners.Movies++
		case inventory.KindEpisode:
			st.Owners.Episodes++
		}
	}

	return st
}
