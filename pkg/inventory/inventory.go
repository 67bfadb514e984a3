package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/arrmap/pkg/logger"
)

// maxReasonProblems caps how many listing problems are quoted in a health reason.
const maxReasonProblems = 3

type sourceResult struct {
	health    Health
	tuples    []OwnershipTuple
	owners    []OwnerInfo
	cancelled bool
}

// Collect fetches every source concurrently and flattens the listings into
// ownership tuples. A failing or slow source never aborts the others, it only
// shows up in Health. Cancelling ctx marks the result Cancelled.
func Collect(ctx context.Context, sources []Source, opt Options) *Result {
	log := logger.GetLogger("inventory")

	results := make([]sourceResult, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			results[i] = fetchSource(ctx, src, opt, log)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		Owners: make(map[OwnerKey]OwnerInfo),
		Health: make([]Health, 0, len(sources)),
	}

	seen := make(map[OwnershipTuple]struct{})
	for _, r := range results {
		if r.cancelled {
			res.Cancelled = true
			continue
		}

		res.Health = append(res.Health, r.health)

		for _, o := range r.owners {
			res.Owners[OwnerKey{Kind: o.Kind, ID: o.ID}] = o
		}

		for _, t := range r.tuples {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			res.Tuples = append(res.Tuples, t)
		}
	}

	if ctx.Err() != nil {
		res.Cancelled = true
	}

	sortTuples(res.Tuples)
	sort.SliceStable(res.Health, func(i, j int) bool {
		return res.Health[i].Name < res.Health[j].Name
	})

	return res
}

func fetchSource(ctx context.Context, src Source, opt Options, log *logrus.Entry) sourceResult {
	name := src.Name()
	start := time.Now()

	sctx, cancel := ctx, context.CancelFunc(func() {})
	if opt.Timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, opt.Timeout)
	}
	defer cancel()

	type fetched struct {
		listing *Listing
		err     error
	}

	// buffered: Fetch may outlive this call when the source ignores sctx
	done := make(chan fetched, 1)
	go func() {
		l, err := src.Fetch(sctx)
		done <- fetched{listing: l, err: err}
	}()

	var (
		listing *Listing
		err     error
	)
	select {
	case f := <-done:
		listing, err = f.listing, f.err
	case <-sctx.Done():
		err = sctx.Err()
	}

	h := Health{
		Name:     name,
		Kind:     src.Kind(),
		Duration: time.Since(start),
	}

	switch {
	case ctx.Err() != nil:
		log.Debugf("Fetch from %s cancelled", name)
		return sourceResult{cancelled: true}

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(sctx.Err(), context.DeadlineExceeded):
		h.Status = StatusDegraded
		h.Reason = fmt.Sprintf("timed out after %s", opt.Timeout)
		log.Warnf("Source %s %s, ignoring its inventory", name, h.Reason)
		return sourceResult{health: h}

	case err != nil:
		h.Status = StatusFailed
		h.Reason = err.Error()
		log.WithError(err).Errorf("Failed fetching inventory from %s", name)
		return sourceResult{health: h}
	}

	if listing == nil {
		listing = &Listing{}
	}

	r := flatten(src, listing, opt.mapperFor(name))
	r.health.Duration = h.Duration

	log.Debugf("Fetched %d owners and %d files from %s in %s", r.health.Owners, r.health.Tuples, name, h.Duration)
	return r
}

func flatten(src Source, listing *Listing, mapper *PathMapper) sourceResult {
	name := src.Name()
	kind := src.Kind()

	problems := append([]string(nil), listing.Problems...)
	r := sourceResult{
		owners: make([]OwnerInfo, 0, len(listing.Owners)),
	}

	for _, o := range listing.Owners {
		if o.ID == "" {
			problems = append(problems, fmt.Sprintf("owner %q has no id", o.Title))
			continue
		}

		r.owners = append(r.owners, OwnerInfo{
			ID:       o.ID,
			Kind:     kind,
			Title:    o.Title,
			Source:   name,
			Trackers: o.Trackers,
		})

		for _, f := range o.Files {
			p, err := mapper.Resolve(o.BasePath, f.Path)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s %s: %v", kind, o.ID, err))
				continue
			}

			r.tuples = append(r.tuples, OwnershipTuple{
				OwnerID: o.ID,
				Kind:    kind,
				Path:    p,
				Source:  name,
			})
		}
	}

	r.health = Health{
		Name:   name,
		Kind:   kind,
		Status: StatusOK,
		Owners: len(r.owners),
		Tuples: len(r.tuples),
	}

	if len(problems) > 0 {
		r.health.Status = StatusDegraded
		r.health.Reason = summarizeProblems(problems)
	}

	return r
}

func summarizeProblems(problems []string) string {
	if len(problems) <= maxReasonProblems {
		return "partial listing: " + strings.Join(problems, "; ")
	}
	return fmt.Sprintf("partial listing: %s (and %d more)",
		strings.Join(problems[:maxReasonProblems], "; "), len(problems)-maxReasonProblems)
}

func sortTuples(tuples []OwnershipTuple) {
	sort.Slice(tuples, func(i, j int) bool {
		a, b := tuples[i], tuples[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.OwnerID != b.OwnerID {
			return a.OwnerID < b.OwnerID
		}
		return a.Source < b.Source
	})
}
