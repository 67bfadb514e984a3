package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/scan"
)

const namespace = "arrmap"

var statuses = []inventory.Status{
	inventory.StatusOK,
	inventory.StatusDegraded,
	inventory.StatusFailed,
	inventory.StatusDisabled,
}

func gauge(name, help string, v float64) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	g.Set(v)
	return g
}

// FromReport returns a registry holding the gauges of one finished scan.
func FromReport(rep *scan.Report) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	st := rep.Stats

	collectors := []prometheus.Collector{
		gauge("files", "Indexed file paths.", float64(st.TotalFiles)),
		gauge("unique_bytes", "Bytes used on disk by indexed files.", float64(st.UniqueSize)),
		gauge("hardlink_groups", "Physical files with more than one indexed path.", float64(st.HardlinkGroups)),
		gauge("orphans", "Physical files no torrent, movie or episode owns.", float64(st.Orphans)),
		gauge("orphan_bytes", "Size of orphaned files.", float64(st.OrphanSize)),
		gauge("reclaimable_bytes", "Bytes freed by unlinking every orphaned path.", float64(st.ReclaimableSize)),
		gauge("ignored_orphans", "Orphans matched by an ignore rule.", float64(st.IgnoredOrphans)),
		gauge("cross_seed_clusters", "Groups of torrents sharing files.", float64(st.CrossSeedClusters)),
		gauge("missing_files", "Paths a service lists that were not found on disk.", float64(st.MissingFiles)),
		gauge("warnings", "Filesystem warnings raised during the walk.", float64(len(rep.Warnings))),
		gauge("scan_duration_seconds", "Duration of the last scan.", rep.Duration.Seconds()),
		gauge("scan_timestamp_seconds", "Start time of the last scan.", float64(rep.StartedAt.Unix())),
	}

	degraded := 0.0
	if rep.Degraded {
		degraded = 1
	}
	collectors = append(collectors, gauge("scan_degraded", "Whether any enabled service was not ok.", degraded))

	owners := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "owners",
		Help:      "Owners reported by the services.",
	}, []string{"kind"})
	owners.WithLabelValues(string(inventory.KindTorrent)).Set(float64(st.Owners.Torrents))
	owners.WithLabelValues(string(inventory.KindMovie)).Set(float64(st.Owners.Movies))
	owners.WithLabelValues(string(inventory.KindEpisode)).Set(float64(st.Owners.Episodes))

	health := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "service_status",
		Help:      "Service health, 1 for the current status.",
	}, []string{"service", "status"})
	for _, h := range rep.Services {
		for _, s := range statuses {
			v := 0.0
			if h.Status == s {
				v = 1
			}
			health.WithLabelValues(h.Name, string(s)).Set(v)
		}
	}

	collectors = append(collectors, owners, health)

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return reg, nil
}

// WriteTextfile writes the scan gauges in the node_exporter textfile format.
func WriteTextfile(path string, rep *scan.Report) error {
	reg, err := FromReport(rep)
	if err != nil {
		return err
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write textfile: %w", err)
	}

	return nil
}
