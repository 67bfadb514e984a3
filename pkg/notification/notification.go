package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/autobrr/arrmap/pkg/classify"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/relationship"
	"github.com/autobrr/arrmap/pkg/scan"
)

type Action int

const (
	ActionOrphan Action = iota + 1
	ActionCrossSeed
	ActionService
	ActionMissing
)

type Sender interface {
	CanSend() bool
	Send(ctx context.Context, title string, description string, runTime time.Duration, fields []Field) error
	BuildField(action Action, options BuildOptions) Field
	Name() string
}

type Field struct {
	Name  string
	Value string
}

type BuildOptions struct {
	Orphan  classify.Orphan
	Cluster classify.CrossSeedCluster
	Service inventory.Health
	Missing relationship.MissingFile
}

// Describe is the one-paragraph summary of a scan.
func Describe(rep *scan.Report) string {
	st := rep.Stats

	desc := fmt.Sprintf("Scanned %d files (%s on disk).\nOrphans: %d (%s reclaimable, %d ignored)\nCross-seed clusters: %d\nMissing files: %d",
		st.TotalFiles, humanize.IBytes(uint64(st.UniqueSize)),
		st.Orphans, humanize.IBytes(uint64(st.ReclaimableSize)), st.IgnoredOrphans,
		st.CrossSeedClusters, st.MissingFiles)

	if rep.Degraded {
		desc += "\n**Degraded:** some services did not report a complete inventory."
	}

	return desc
}

// Fields builds one field per unhealthy service, active orphan, cluster and missing file.
func Fields(s Sender, rep *scan.Report) []Field {
	var fields []Field

	for _, h := range rep.Services {
		if h.Status == inventory.StatusOK || h.Status == inventory.StatusDisabled {
			continue
		}
		fields = append(fields, s.BuildField(ActionService, BuildOptions{Service: h}))
	}

	for _, o := range rep.ActiveOrphans() {
		fields = append(fields, s.BuildField(ActionOrphan, BuildOptions{Orphan: o}))
	}

	for _, c := range rep.CrossSeeds {
		fields = append(fields, s.BuildField(ActionCrossSeed, BuildOptions{Cluster: c}))
	}

	for _, m := range rep.MissingFiles {
		fields = append(fields, s.BuildField(ActionMissing, BuildOptions{Missing: m}))
	}

	return fields
}

// SendReport sends the summary of rep through s.
func SendReport(ctx context.Context, s Sender, rep *scan.Report) error {
	if !s.CanSend() {
		return nil
	}

	title := "arrmap scan"
	if rep.Degraded {
		title += " (degraded)"
	}

	return s.Send(ctx, title, Describe(rep), rep.Duration, Fields(s, rep))
}
