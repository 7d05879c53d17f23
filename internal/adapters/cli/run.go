package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/deliverysim-go/internal/adapters/persistence"
	adapterrouting "github.com/andrescamacho/deliverysim-go/internal/adapters/routing"
	"github.com/andrescamacho/deliverysim-go/internal/application/world"
	"github.com/andrescamacho/deliverysim-go/internal/domain/routing"
	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/config"
	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/database"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		instanceID  int
		seed        int64
		until       string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation on an instance",
		Long: `Run one simulation over the orders and couriers of an instance and store
the results.

Examples:
  deliverysim run --instance 1
  deliverysim run --instance 1 --seed 42 --until 14:30:00
  deliverysim run --instance 1 --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if seed != 0 {
				cfg.Simulation.Seed = seed
			}
			if until != "" {
				cfg.Simulation.SimulateUntil = until
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close(db)
			if err := db.AutoMigrate(persistence.AllModels()...); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			instances := persistence.NewGormInstanceRepository(db, log)
			if err := checkInstanceExists(cmd.Context(), instances, instanceID); err != nil {
				return err
			}

			client, closeClient, err := buildRoutingClient(cfg, log)
			if err != nil {
				return err
			}
			defer closeClient()

			addr := metricsAddr
			if addr == "" && cfg.Metrics.Enabled {
				addr = fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port)
			}
			collector, err := startMetrics(addr, cfg.Metrics.Path, log)
			if err != nil {
				return err
			}

			params := world.Params{
				Config:     cfg,
				InstanceID: instanceID,
				Instances:  instances,
				Results:    persistence.NewGormResultsRepository(db),
				Routing:    client,
				Logger:     log,
			}
			if collector != nil {
				params.Recorder = collector
				params.Shifts = collector
			}

			w, err := world.New(cmd.Context(), params)
			if err != nil {
				return err
			}
			report, err := w.Run()
			if err != nil {
				return err
			}

			printReport(report)
			return nil
		},
	}

	cmd.Flags().IntVar(&instanceID, "instance", 0, "Instance id to simulate (required)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed override (0 keeps the configured seed)")
	cmd.Flags().StringVar(&until, "until", "", "Stop the clock at this HH:MM:SS instant")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	_ = cmd.MarkFlagRequired("instance")

	return cmd
}

// checkInstanceExists refuses to start a run against an instance id with no
// seeded data.
func checkInstanceExists(ctx context.Context, repo *persistence.GormInstanceRepository, instanceID int) error {
	ids, err := repo.Instances(ctx)
	if err != nil {
		return fmt.Errorf("failed to list instances: %w", err)
	}
	for _, id := range ids {
		if id == instanceID {
			return nil
		}
	}
	return fmt.Errorf("instance %d has no seeded data (run 'deliverysim seed --instance %d' first)", instanceID, instanceID)
}

// buildRoutingClient resolves the configured routing mode into a client and
// its cleanup function.
func buildRoutingClient(cfg *config.Config, log logrus.FieldLogger) (routing.Client, func(), error) {
	switch cfg.Routing.Mode {
	case "mock":
		return adapterrouting.NewMockClient(), func() {}, nil
	case "osrm":
		client := adapterrouting.NewOSRMClientWithConfig(
			cfg.Routing.BaseURL,
			cfg.Routing.RequestsPerSecond,
			cfg.Routing.Retry.MaxAttempts,
			cfg.Routing.Retry.BackoffBase,
			nil,
			log,
		)
		if !cfg.Routing.Cache.Enabled {
			return client, func() {}, nil
		}
		cached, err := adapterrouting.NewCachedClient(client, cfg.Routing.Cache.MaxRoutes)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build route cache: %w", err)
		}
		return cached, cached.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown routing mode %q", cfg.Routing.Mode)
	}
}

// startMetrics wires the Prometheus registry and serves it on addr. An empty
// addr disables metrics entirely.
func startMetrics(addr, path string, log logrus.FieldLogger) (*metrics.SimulationCollector, error) {
	if addr == "" {
		return nil, nil
	}

	metrics.InitRegistry()

	collector := metrics.NewSimulationCollector()
	if err := collector.Register(); err != nil {
		return nil, fmt.Errorf("failed to register simulation metrics: %w", err)
	}
	routingCollector := metrics.NewRoutingMetricsCollector()
	if err := routingCollector.Register(); err != nil {
		return nil, fmt.Errorf("failed to register routing metrics: %w", err)
	}
	metrics.SetGlobalRoutingCollector(routingCollector)

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Warn("metrics server stopped")
		}
	}()
	log.WithField("addr", addr).Info("serving metrics")

	return collector, nil
}

func printReport(report *world.RunReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Run\t%s\n", report.RunID)
	fmt.Fprintf(w, "Instance\t%d\n", report.InstanceID)
	fmt.Fprintf(w, "Seed\t%d\n", report.Seed)
	fmt.Fprintf(w, "Wall time\t%s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Orders placed\t%d\n", report.OrdersPlaced)
	fmt.Fprintf(w, "Orders fulfilled\t%d\n", report.OrdersFulfilled)
	fmt.Fprintf(w, "Orders canceled\t%d\n", report.OrdersCanceled)
	fmt.Fprintf(w, "Orders lost\t%d\n", report.OrdersLost)
	fmt.Fprintf(w, "Avg click-to-door\t%.0fs\n", report.AvgClickToDoor)
	fmt.Fprintf(w, "Couriers\t%d\n", len(report.CourierMetrics))
	fmt.Fprintf(w, "Dropped offers\t%d\n", report.DroppedOffers)
	w.Flush()
}
