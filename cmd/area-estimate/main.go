// Command area-estimate runs Monte Carlo area estimations for a batch of
// images described by a YAML run file and prints a report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/area-estimator-mcp/internal/config"
	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
	"github.com/ironsheep/area-estimator-mcp/internal/logging"
	"github.com/ironsheep/area-estimator-mcp/internal/montecarlo"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Version information - set by ldflags during build
var Version = "dev"

// Report is the outcome for one image. Exactly one of Result and Error is
// set.
type Report struct {
	Image  string             `json:"image" yaml:"image"`
	Result *montecarlo.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string             `json:"error,omitempty" yaml:"error,omitempty"`
}

func main() {
	var (
		configPath string
		format     string
		workers    int
		seed       int64
		showVer    bool
	)
	flag.StringVar(&configPath, "config", "", "YAML run file (settings and images)")
	flag.StringVar(&format, "format", "yaml", "Report format: yaml or json")
	flag.IntVar(&workers, "workers", -1, "Concurrent runs; 0 = physical CPUs (overrides the run file)")
	flag.Int64Var(&seed, "seed", 0, "Random seed override; 0 keeps the run file's seed")
	flag.BoolVar(&showVer, "version", false, "Print version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -config run.yaml [options] [image ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVer {
		fmt.Printf("area-estimate %s\n", Version)
		return
	}

	logger := logging.FromEnv()

	rf := &config.RunFile{Settings: config.DefaultSettings()}
	if configPath != "" {
		var err error
		if rf, err = config.Load(configPath); err != nil {
			logger.Error("invalid run file", "error", err)
			os.Exit(2)
		}
	}
	rf.Images = append(rf.Images, flag.Args()...)
	if workers >= 0 {
		rf.Workers = workers
	}
	if seed != 0 {
		rf.Seed = seed
	}
	if len(rf.Images) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if format != "yaml" && format != "json" {
		logger.Error("unknown report format", "format", format)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := runBatch(ctx, logger, rf)
	if err != nil {
		logger.Error("batch aborted", "error", err)
		os.Exit(1)
	}
	if err := writeReports(os.Stdout, format, reports); err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}
	for _, r := range reports {
		if r.Error != "" {
			os.Exit(1)
		}
	}
}

// runBatch estimates every image of rf with up to rf.Workers concurrent
// runs. Each run owns its random source, so seeded runs are reproducible
// regardless of scheduling. Per-image failures are recorded in the report;
// only a configuration error or cancellation aborts the batch.
func runBatch(ctx context.Context, logger *slog.Logger, rf *config.RunFile) ([]Report, error) {
	cfg, err := rf.RunConfig()
	if err != nil {
		return nil, err
	}

	limit := rf.Workers
	if limit == 0 {
		limit = physicalCPUs(logger)
	}
	logger.Debug("batch", "images", len(rf.Images), "workers", limit, "policy", cfg.Policy)

	cache := imaging.NewImageCache()
	reports := make([]Report, len(rf.Images))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range rf.Images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run := cfg
			run.Progress = func(p montecarlo.Progress) {
				logger.Debug("progress", "image", path, "fraction", p.Fraction())
			}

			reports[i] = Report{Image: path}
			src, scale, err := cache.LoadRaster(path, run.SourceChannels(), rf.MaxDimension)
			if err == nil {
				run.Scale = scale
				reports[i].Result, err = montecarlo.Run(ctx, src, run)
			}
			// Each image is decoded once; release it once its run is done.
			cache.Evict(path)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				logger.Warn("estimation failed", "image", path, "error", err)
				reports[i].Error = err.Error()
				return nil
			}
			logger.Info("estimated", "image", path,
				"area", reports[i].Result.AreaEstimate,
				"inside", reports[i].Result.InsideCount,
				"total", reports[i].Result.TotalSamples)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func physicalCPUs(logger *slog.Logger) int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		logger.Debug("cpu count unavailable, running sequentially", "error", err)
		return 1
	}
	return n
}

func writeReports(w io.Writer, format string, reports []Report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}
