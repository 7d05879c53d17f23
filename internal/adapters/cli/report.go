package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/database"
)

// NewReportCommand creates the report command
func NewReportCommand() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect stored runs",
		Long: `List stored runs, or show one run with its per-courier metrics.

Examples:
  deliverysim report
  deliverysim report --run-id 9f2c6e9a-...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close(db)
			if err := db.AutoMigrate(persistence.AllModels()...); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			repo := persistence.NewGormResultsRepository(db)
			if runID == "" {
				runs, err := repo.ListRuns(cmd.Context())
				if err != nil {
					return err
				}
				printRuns(runs)
				return nil
			}

			run, courierMetrics, err := repo.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			printRun(run, courierMetrics)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Show one run instead of listing all")

	return cmd
}

func printRuns(runs []persistence.RunModel) {
	if len(runs) == 0 {
		fmt.Println("No runs stored yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tINSTANCE\tSTARTED\tWINDOW\tPLACED\tFULFILLED\tCANCELED\tLOST")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s-%s\t%d\t%d\t%d\t%d\n",
			r.RunID,
			r.InstanceID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			shared.FormatClock(r.SimulateFrom),
			shared.FormatClock(r.SimulateUntil),
			r.OrdersPlaced,
			r.OrdersFulfilled,
			r.OrdersCanceled,
			r.OrdersLost,
		)
	}
	w.Flush()
}

func printRun(run *persistence.RunModel, courierMetrics []persistence.CourierMetricModel) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Run\t%s\n", run.RunID)
	fmt.Fprintf(w, "Instance\t%d\n", run.InstanceID)
	fmt.Fprintf(w, "Window\t%s-%s\n", shared.FormatClock(run.SimulateFrom), shared.FormatClock(run.SimulateUntil))
	fmt.Fprintf(w, "Seed\t%d\n", run.Seed)
	fmt.Fprintf(w, "Orders placed\t%d\n", run.OrdersPlaced)
	fmt.Fprintf(w, "Orders fulfilled\t%d\n", run.OrdersFulfilled)
	fmt.Fprintf(w, "Orders canceled\t%d\n", run.OrdersCanceled)
	fmt.Fprintf(w, "Orders lost\t%d\n", run.OrdersLost)
	fmt.Fprintf(w, "Couriers\t%d\n", run.Couriers)
	w.Flush()

	if len(courierMetrics) == 0 {
		return
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COURIER\tSHIFT\tORDERS\tUTILIZATION\tEARNINGS\tGUARANTEED")
	for _, m := range courierMetrics {
		guaranteed := ""
		if m.GuaranteedCompensation == 1 {
			guaranteed = "yes"
		}
		fmt.Fprintf(w, "%d\t%s-%s\t%d\t%.0f%%\t%s\t%s\n",
			m.CourierID,
			shared.FormatClock(m.OnTime),
			shared.FormatClock(m.OffTime),
			m.FulfilledOrders,
			m.Utilization*100,
			m.Earnings,
			guaranteed,
		)
	}
	w.Flush()
}
