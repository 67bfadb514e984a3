package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/autobrr/arrmap/pkg/scan"
)

// maxRows caps list sections below DetailFull.
const maxRows = 25

func (o Options) shows(s Section) bool {
	if len(o.Sections) > 0 {
		return slices.Contains(o.Sections, s)
	}

	switch o.Detail {
	case DetailSummary:
		return s == SectionSummary || s == SectionServices
	case DetailFull:
		return true
	default:
		return s != SectionHardlinks
	}
}

func (o Options) limit(n int) int {
	if o.Detail == DetailFull || n < maxRows {
		return n
	}
	return maxRows
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func writeTable(w io.Writer, rep *scan.Report, opt Options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	sections := []struct {
		section Section
		write   func(io.Writer, *scan.Report, Options)
	}{
		{SectionSummary, writeSummary},
		{SectionServices, writeServices},
		{SectionHardlinks, writeHardlinks},
		{SectionOrphans, writeOrphans},
		{SectionCrossSeeds, writeCrossSeeds},
		{SectionMissing, writeMissing},
		{SectionWarnings, writeWarnings},
	}

	first := true
	for _, s := range sections {
		if !opt.shows(s.section) {
			continue
		}
		if !first {
			fmt.Fprintln(tw)
		}
		first = false
		s.write(tw, rep, opt)
	}

	return tw.Flush()
}

func writeSummary(w io.Writer, rep *scan.Report, _ Options) {
	st := rep.Stats
	status := "complete"
	if rep.Degraded {
		status = "DEGRADED"
	}

	fmt.Fprintf(w, "SCAN\t%s\t%s\n", rep.StartedAt.Format(time.RFC3339), status)
	fmt.Fprintf(w, "Duration\t%s\n", rep.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Files\t%d (%d torrent, %d library)\n", st.TotalFiles, st.TorrentFiles, st.LibraryFiles)
	fmt.Fprintf(w, "Size\t%s logical, %s on disk\n", formatBytes(st.TotalSize), formatBytes(st.UniqueSize))
	fmt.Fprintf(w, "Hardlinked\t%d groups\n", st.HardlinkGroups)
	fmt.Fprintf(w, "Owners\t%d torrents, %d movies, %d episodes\n", st.Owners.Torrents, st.Owners.Movies, st.Owners.Episodes)
	fmt.Fprintf(w, "Orphans\t%d (%s, %s reclaimable, %d ignored)\n", st.Orphans, formatBytes(st.OrphanSize), formatBytes(st.ReclaimableSize), st.IgnoredOrphans)
	fmt.Fprintf(w, "Cross-seeds\t%d clusters\n", st.CrossSeedClusters)
	fmt.Fprintf(w, "Missing files\t%d\n", st.MissingFiles)
	fmt.Fprintf(w, "Warnings\t%d\n", len(rep.Warnings))
}

func writeServices(w io.Writer, rep *scan.Report, _ Options) {
	fmt.Fprintln(w, "SERVICE\tSTATUS\tOWNERS\tFILES\tTIME\tREASON")
	for _, h := range rep.Services {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", h.Name, h.Status, h.Owners, h.Tuples, h.Duration.Round(time.Millisecond), h.Reason)
	}
}

func writeHardlinks(w io.Writer, rep *scan.Report, opt Options) {
	groups := rep.HardlinkedGroups()
	fmt.Fprintf(w, "HARDLINK GROUP\tSIZE\tLINKS\tOWNERS\tPATHS\n")
	for _, n := range groups[:opt.limit(len(groups))] {
		v := n.View()
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%s\n", n.ID, formatBytes(n.Size), n.LinkCount, n.Nlink, v.Len(), strings.Join(n.Paths, ", "))
	}
	writeTruncated(w, len(groups), opt)
}

func writeOrphans(w io.Writer, rep *scan.Report, opt Options) {
	orphans := rep.Orphans
	if !opt.IncludeIgnored {
		orphans = rep.ActiveOrphans()
	}

	fmt.Fprintf(w, "ORPHAN\tSIZE\tRECLAIMABLE\tMODIFIED\tNOTE\n")
	for _, o := range orphans[:opt.limit(len(orphans))] {
		note := ""
		switch {
		case o.Ignored:
			note = "ignored: " + o.IgnoreReason
		case o.ExternalLinks > 0:
			note = fmt.Sprintf("%d link(s) outside scanned roots", o.ExternalLinks)
		}

		modified := ""
		if !o.ModTime.IsZero() {
			modified = humanize.Time(o.ModTime)
		}

		for i, p := range o.Paths {
			if i == 0 {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Path, formatBytes(o.Size), formatBytes(o.ReclaimableBytes), modified, note)
				continue
			}
			fmt.Fprintf(w, "  %s\t\t\t\t\n", p.Path)
		}
	}
	writeTruncated(w, len(orphans), opt)
}

func writeCrossSeeds(w io.Writer, rep *scan.Report, opt Options) {
	fmt.Fprintf(w, "CROSS-SEED CLUSTER\tTORRENTS\tSHARED\tTRACKERS\n")
	for i, c := range rep.CrossSeeds[:opt.limit(len(rep.CrossSeeds))] {
		fmt.Fprintf(w, "#%d %s\t%d\t%s in %d files\t%s\n", i+1, c.Names[0], len(c.Torrents), formatBytes(c.SharedSize), len(c.SharedPaths), strings.Join(c.Trackers, ", "))
		if opt.Detail == DetailFull {
			for j, id := range c.Torrents {
				fmt.Fprintf(w, "  %s\t%s\t\t\n", id, c.Names[j])
			}
		}
	}
	writeTruncated(w, len(rep.CrossSeeds), opt)
}

func writeMissing(w io.Writer, rep *scan.Report, opt Options) {
	fmt.Fprintf(w, "MISSING FILE\tOWNER\tSOURCE\tNOTE\n")
	for _, m := range rep.MissingFiles[:opt.limit(len(rep.MissingFiles))] {
		note := ""
		if m.OutsideRoots {
			note = "outside scanned roots"
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n", m.Path, m.Kind, m.OwnerID, m.Source, note)
	}
	writeTruncated(w, len(rep.MissingFiles), opt)
}

func writeWarnings(w io.Writer, rep *scan.Report, opt Options) {
	fmt.Fprintf(w, "WARNING\tPATH\tMESSAGE\n")
	for _, wr := range rep.Warnings[:opt.limit(len(rep.Warnings))] {
		fmt.Fprintf(w, "%s\t%s\t%s\n", wr.Kind, wr.Path, wr.Message)
	}
	writeTruncated(w, len(rep.Warnings), opt)
}

func writeTruncated(w io.Writer, total int, opt Options) {
	if shown := opt.limit(total); shown < total {
		fmt.Fprintf(w, "... %d more, use --detail full\n", total-shown)
	}
}
