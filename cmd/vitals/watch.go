package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/vitals/display"
	"github.com/srg/vitals/internal/config"
	"github.com/srg/vitals/internal/sensor"
	"github.com/srg/vitals/internal/sensor/hrm"
	"github.com/srg/vitals/internal/sensor/sim"
	"github.com/srg/vitals/internal/uplink"
	"github.com/srg/vitals/orchestrator"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Bind all sensor slots and watch the live dashboard",
	Long: `Binds every configured sensor slot and continuously renders the four-row
dashboard: device name, connection status, temperature, heart rate,
acceleration, battery, and records uploaded per slot.

Sources are simulated unless a chest strap address is configured
(chest.address or --chest-address), in which case the chest slot connects
to the real BLE heart rate monitor.

Refreshes on the poll interval until Ctrl+C. SIGHUP re-fetches the
configuration; a failed fetch keeps the previous one.`,
	RunE: runWatch,
}

var (
	watchInterval     time.Duration
	watchChestAddress string
)

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "Poll interval (overrides configuration)")
	watchCmd.Flags().StringVar(&watchChestAddress, "chest-address", "", "BLE address of the chest strap (simulated if empty)")
	watchCmd.Flags().BoolP("verbose", "V", false, "Verbose logging")
}

// hubSetup bundles everything a running dashboard needs.
type hubSetup struct {
	hub     *orchestrator.Hub
	batcher *uplink.Batcher
	tracker *uplink.Tracker
	store   *config.Store
	logger  *logrus.Logger
}

// buildHub assembles the slot sources, the hub and the uplink batcher from
// flags and configuration. Shared by watch and status.
func buildHub(cmd *cobra.Command) (*hubSetup, error) {
	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return nil, err
	}

	configPath, _ := cmd.Flags().GetString("config")
	store, err := config.NewStore(configPath, logger)
	if err != nil && configPath != "" {
		// An explicit config file must load; the default search path may not.
		return nil, err
	}
	cfg := store.Current()

	chestAddress := watchChestAddress
	if chestAddress == "" {
		chestAddress = cfg.Chest.Address
	}

	var chest sensor.Source
	var chestProducer uplink.Producer
	if chestAddress != "" {
		real := hrm.NewChest(chestAddress, logger)
		chest, chestProducer = real, real
	} else {
		fake := sim.NewChest("Polar H10 5A2F01", logger)
		chest, chestProducer = fake, fake
	}

	wrist := sim.NewWrist("A01B2C", logger)
	phone := sim.NewPhone("pixel 4a", logger)

	sources := [orchestrator.NumSlots]sensor.Source{
		orchestrator.SlotWrist: wrist,
		orchestrator.SlotChest: chest,
		orchestrator.SlotPhone: phone,
	}

	pollInterval := cfg.PollInterval
	if watchInterval > 0 {
		pollInterval = watchInterval
	}

	hub := orchestrator.New(orchestrator.Options{
		PollInterval: pollInterval,
		CallTimeout:  cfg.CallTimeout,
		Logger:       logger,
		Config:       store,
	}, sources)

	manifestPath, _ := cmd.Flags().GetString("manifest")
	if manifestPath != "" {
		m, err := config.LoadManifest(manifestPath, orchestrator.NumSlots)
		if err != nil {
			return nil, err
		}
		hub.ApplyManifest(m)
	}

	tracker := uplink.NewTracker(logger)
	batcher := uplink.NewBatcher(cfg.UploadInterval, hub.Events(), logger).WithTracker(tracker)
	batcher.Register(wrist)
	batcher.Register(chestProducer)
	batcher.Register(phone)

	return &hubSetup{
		hub:     hub,
		batcher: batcher,
		tracker: tracker,
		store:   store,
		logger:  logger,
	}, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	setup, err := buildHub(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C stops the dashboard; SIGHUP re-fetches the configuration.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	setup.hub.Start(ctx)
	defer setup.hub.Stop()
	setup.batcher.Run(ctx)

	table := display.NewTable(os.Stdout)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				// Failed fetch retains the previous configuration.
				_ = setup.store.Fetch()
				setup.hub.Reconfigure()
				continue
			}
			fmt.Println("\nShutting down...")
			printUploadSummary(setup.tracker)
			return nil

		case frame := <-setup.hub.Frames():
			table.Clear()
			if err := table.Render(frame); err != nil {
				return err
			}
		}
	}
}

// printUploadSummary prints per-topic upload totals in first-seen order.
func printUploadSummary(tracker *uplink.Tracker) {
	stats := tracker.Topics()
	if len(stats) == 0 {
		return
	}
	fmt.Println("Upload summary:")
	for _, s := range stats {
		if s.Failures > 0 {
			fmt.Printf("  %-12s %6d records (%d failed batches)\n", s.Topic, s.Total, s.Failures)
		} else {
			fmt.Printf("  %-12s %6d records\n", s.Topic, s.Total)
		}
	}
}
