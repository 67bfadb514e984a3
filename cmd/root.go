package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autobrr/arrmap/pkg/arr"
	"github.com/autobrr/arrmap/pkg/client"
	"github.com/autobrr/arrmap/pkg/config"
	"github.com/autobrr/arrmap/pkg/expression"
	"github.com/autobrr/arrmap/pkg/fsindex"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/logger"
	"github.com/autobrr/arrmap/pkg/metrics"
	"github.com/autobrr/arrmap/pkg/notification"
	"github.com/autobrr/arrmap/pkg/report"
	"github.com/autobrr/arrmap/pkg/scan"
)

var (
	// Global flags
	FlagLogLevel     = 0
	FlagConfigFile   = "config.yaml"
	FlagConfigFolder = config.GetDefaultConfigDirectory("arrmap", FlagConfigFile)
	FlagLogFile      = "activity.log"

	// Global vars
	cfg         *config.Configuration
	initialized bool
)

// scanFlags are shared by every command that runs a scan.
type scanFlags struct {
	format      string
	detail      string
	metricsFile string
	notify      bool

	includeIgnored bool
}

func (f *scanFlags) register(cmd *cobra.Command, detail string) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "table", "Output format (table, json, yaml)")
	cmd.Flags().StringVar(&f.detail, "detail", detail, "Table detail level (summary, normal, full)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write scan metrics in Prometheus textfile format")
	cmd.Flags().BoolVar(&f.notify, "notify", false, "Send a scan summary to the configured notification service")
}

func (f *scanFlags) reportOptions(sections ...report.Section) (report.Options, error) {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return report.Options{}, err
	}

	detail, err := report.ParseDetail(f.detail)
	if err != nil {
		return report.Options{}, err
	}

	return report.Options{
		Format:         format,
		Detail:         detail,
		Sections:       sections,
		IncludeIgnored: f.includeIgnored,
	}, nil
}

func configPath() string {
	if filepath.IsAbs(FlagConfigFile) || FlagConfigFolder == "" {
		return FlagConfigFile
	}
	return filepath.Join(FlagConfigFolder, FlagConfigFile)
}

func logPath() string {
	if FlagLogFile == "" || filepath.IsAbs(FlagLogFile) || FlagConfigFolder == "" {
		return FlagLogFile
	}
	return filepath.Join(FlagConfigFolder, FlagLogFile)
}

func initCore(validate bool) error {
	if initialized {
		return nil
	}

	if err := logger.Init(logger.Option{Level: FlagLogLevel, File: logPath()}); err != nil {
		return errors.Wrap(err, "init logger")
	}

	c, err := config.Load(configPath())
	if err != nil {
		return err
	}

	if validate {
		if err := c.Validate(); err != nil {
			return err
		}
	}

	cfg = c
	initialized = true
	return nil
}

func sourceMapper(name string, override map[string]string, mappers map[string]*inventory.PathMapper) error {
	if len(override) == 0 {
		return nil
	}

	m, err := inventory.Merge(cfg.PathMapping, override)
	if err != nil {
		return errors.Wrapf(err, "%s path mapping", name)
	}
	mappers[name] = m
	return nil
}

// buildOptions turns the loaded configuration into scanner options.
func buildOptions(log *logrus.Entry) (scan.Options, error) {
	opt := scan.Options{
		Disabled:          map[string]inventory.OwnerKind{},
		Mappers:           map[string]*inventory.PathMapper{},
		SourceTimeout:     cfg.Timeouts.Source,
		FilesystemTimeout: cfg.Timeouts.Filesystem,
		Workers:           cfg.Workers,
		Log:               logger.GetLogger("scan"),
		OnPhase: func(p scan.Phase) {
			log.Debugf("Scan phase: %s", p)
		},
	}

	for _, p := range cfg.Roots.Torrent {
		opt.Roots = append(opt.Roots, fsindex.Root{Path: p, Kind: fsindex.RootTorrent})
	}
	for _, p := range cfg.Roots.Library {
		opt.Roots = append(opt.Roots, fsindex.Root{Path: p, Kind: fsindex.RootLibrary})
	}

	mapper, err := inventory.NewPathMapper(cfg.PathMapping)
	if err != nil {
		return opt, errors.Wrap(err, "path mapping")
	}
	opt.Mapper = mapper

	torrentName := strings.ToLower(cfg.TorrentClient.Type)
	if torrentName == "" {
		torrentName = config.TorrentClientQBittorrent
	}

	if cfg.TorrentClient.Enabled {
		c, err := client.NewClient(cfg.TorrentClient, cfg.Retries)
		if err != nil {
			return opt, errors.Wrapf(err, "torrent client %q", cfg.TorrentClient.Type)
		}
		opt.Sources = append(opt.Sources, c)

		if err := sourceMapper(c.Name(), cfg.TorrentClient.PathMapping, opt.Mappers); err != nil {
			return opt, err
		}
	} else {
		opt.Disabled[torrentName] = inventory.KindTorrent
	}

	if cfg.Radarr.Enabled {
		r := arr.NewRadarr(cfg.Radarr, cfg.Retries)
		opt.Sources = append(opt.Sources, r)

		if err := sourceMapper(r.Name(), cfg.Radarr.PathMapping, opt.Mappers); err != nil {
			return opt, err
		}
	} else {
		opt.Disabled["radarr"] = inventory.KindMovie
	}

	if cfg.Sonarr.Enabled {
		s := arr.NewSonarr(cfg.Sonarr, cfg.Retries)
		opt.Sources = append(opt.Sources, s)

		if err := sourceMapper(s.Name(), cfg.Sonarr.PathMapping, opt.Mappers); err != nil {
			return opt, err
		}
	} else {
		opt.Disabled["sonarr"] = inventory.KindEpisode
	}

	ignore, err := expression.Compile(cfg.Orphan.Ignore)
	if err != nil {
		return opt, errors.Wrap(err, "orphan ignore rules")
	}
	opt.Ignore = ignore

	log.Debugf("Configured %d roots, %d sources, %d ignore rules", len(opt.Roots), len(opt.Sources), len(ignore))
	return opt, nil
}

// runScan builds a scanner from the configuration and runs it once.
func runScan(ctx context.Context, log *logrus.Entry) (*scan.Report, error) {
	opt, err := buildOptions(log)
	if err != nil {
		return nil, err
	}

	s, err := scan.New(opt)
	if err != nil {
		return nil, err
	}

	return s.Run(ctx)
}

// publish writes the optional metrics file and notification for rep.
func publish(ctx context.Context, log *logrus.Entry, flags *scanFlags, rep *scan.Report) {
	if flags.metricsFile != "" {
		if err := metrics.WriteTextfile(flags.metricsFile, rep); err != nil {
			log.WithError(err).Error("Failed writing metrics file")
		} else {
			log.Debugf("Wrote metrics to %q", flags.metricsFile)
		}
	}

	if !flags.notify {
		return
	}

	noti := notification.NewDiscordSender(log, cfg.Notifications)
	if !noti.CanSend() {
		log.Debug("Notifications disabled, skipping...")
		return
	}

	if err := notification.SendReport(ctx, noti, rep); err != nil {
		log.WithError(err).Error("Failed sending notification")
	}
}

// scanCommand is the shared body of the scan-running commands.
func scanCommand(name string, flags *scanFlags, sections ...report.Section) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := initCore(true); err != nil {
			return err
		}

		log := logger.GetLogger(name)

		opt, err := flags.reportOptions(sections...)
		if err != nil {
			return err
		}

		rep, err := runScan(cmd.Context(), log)
		if err != nil {
			return err
		}

		log.WithField("duration", rep.Duration.String()).
			Infof("Scanned %d files: %d orphans, %d cross-seed clusters, %d missing",
				rep.Stats.TotalFiles, rep.Stats.Orphans, rep.Stats.CrossSeedClusters, rep.Stats.MissingFiles)
		if rep.Degraded {
			log.Warn("Report is degraded, some services did not answer completely")
		}

		if err := report.Write(cmd.OutOrStdout(), rep, opt); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		publish(cmd.Context(), log, flags, rep)
		return nil
	}
}
