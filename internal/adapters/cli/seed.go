package cli

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/database"
)

// City center the synthetic instance is scattered around.
const (
	seedCenterLat = 52.5200
	seedCenterLng = 13.4050
)

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	var (
		instanceID int
		orders     int
		couriers   int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a synthetic lunch-peak instance",
		Long: `Generate a synthetic instance of order and courier arrivals around a lunch
peak (12:00-14:00) and store it in the instance tables.

Examples:
  deliverysim seed --instance 1
  deliverysim seed --instance 2 --orders 500 --couriers 40 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
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

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))

			orderModels, courierModels := generateInstance(rng, instanceID, orders, couriers)

			repo := persistence.NewGormInstanceRepository(db, log)
			if err := repo.SeedOrders(cmd.Context(), orderModels); err != nil {
				return err
			}
			if err := repo.SeedCouriers(cmd.Context(), courierModels); err != nil {
				return err
			}

			fmt.Printf("Seeded instance %d: %d orders, %d couriers (seed %d)\n",
				instanceID, len(orderModels), len(courierModels), seed)
			return nil
		},
	}

	cmd.Flags().IntVar(&instanceID, "instance", 0, "Instance id to seed (required)")
	cmd.Flags().IntVar(&orders, "orders", 200, "Number of orders to generate")
	cmd.Flags().IntVar(&couriers, "couriers", 20, "Number of couriers to generate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Generator seed (0 seeds from wall-clock time)")
	_ = cmd.MarkFlagRequired("instance")

	return cmd
}

// generateInstance scatters stores and drop-offs around the city center.
// Orders arrive between 12:00 and 14:00, couriers log on shortly before noon
// and stay until 16:00.
func generateInstance(rng *rand.Rand, instanceID, orders, couriers int) ([]persistence.OrderInstanceModel, []persistence.CourierInstanceModel) {
	// A handful of fixed stores so demand clusters like real pick-ups do.
	type store struct{ lat, lng float64 }
	stores := make([]store, 0, 8)
	for i := 0; i < 8; i++ {
		stores = append(stores, store{
			lat: seedCenterLat + (rng.Float64()-0.5)*0.03,
			lng: seedCenterLng + (rng.Float64()-0.5)*0.05,
		})
	}

	orderModels := make([]persistence.OrderInstanceModel, 0, orders)
	for i := 0; i < orders; i++ {
		s := stores[rng.Intn(len(stores))]
		placement := int64(43200 + rng.Intn(7200))
		ready := placement + 300 + rng.Int63n(600)

		m := persistence.OrderInstanceModel{
			InstanceID:         instanceID,
			OrderID:            int64(i + 1),
			PickUpLat:          s.lat,
			PickUpLng:          s.lng,
			DropOffLat:         s.lat + (rng.Float64()-0.5)*0.02,
			DropOffLng:         s.lng + (rng.Float64()-0.5)*0.03,
			PlacementTime:      placement,
			PreparationTime:    ready - placement,
			ReadyTime:          ready,
			PickUpServiceTime:  120,
			DropOffServiceTime: 60,
		}
		// A fifth of the orders can be served from a nearby sibling store.
		if rng.Float64() < 0.2 {
			alt := stores[rng.Intn(len(stores))]
			m.PickUpLat2 = alt.lat
			m.PickUpLng2 = alt.lng
		}
		orderModels = append(orderModels, m)
	}

	vehicles := []string{"bicycle", "bicycle", "motorcycle", "car"}
	courierModels := make([]persistence.CourierInstanceModel, 0, couriers)
	for i := 0; i < couriers; i++ {
		courierModels = append(courierModels, persistence.CourierInstanceModel{
			InstanceID: instanceID,
			CourierID:  int64(i + 1),
			Vehicle:    vehicles[rng.Intn(len(vehicles))],
			OnLat:      seedCenterLat + (rng.Float64()-0.5)*0.04,
			OnLng:      seedCenterLng + (rng.Float64()-0.5)*0.06,
			OnTime:     int64(42300 + rng.Intn(900)),
			OffTime:    int64(57600),
		})
	}

	return orderModels, courierModels
}
