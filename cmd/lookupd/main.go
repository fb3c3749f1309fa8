// Command lookupd applies aircraft-details lookup results to the BaseStation
// database. It subscribes to a NATS subject carrying lookup batches, upserts
// them, and republishes a change notification for every row that actually
// changed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"aircraft_db/internal/basestation"
	"aircraft_db/internal/clock"
	"aircraft_db/internal/config"
	"aircraft_db/internal/notify"
)

// lookupResult is the wire form of one aircraft lookup outcome.
type lookupResult struct {
	ModeS            string  `json:"modes"`
	Registration     *string `json:"registration"`
	Country          *string `json:"country"`
	Manufacturer     *string `json:"manufacturer"`
	Model            *string `json:"model"`
	ICAOTypeCode     *string `json:"icao_type_code"`
	Operator         *string `json:"operator"`
	OperatorFlagCode *string `json:"operator_flag_code"`
	SerialNo         *string `json:"serial_no"`
	YearBuilt        *string `json:"year_built"`
}

func main() {
	configPath := flag.String("config", "lookupd.yaml", "Path to the YAML configuration file")
	subject := flag.String("subject", "aircraft.lookup.results", "NATS subject carrying lookup result batches")
	onlyMissing := flag.Bool("only-missing", false, "Only update records still marked as missing")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := run(*configPath, *subject, *onlyMissing, log); err != nil {
		fmt.Fprintf(os.Stderr, "lookupd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, subject string, onlyMissing bool, log *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := basestation.New(cfg.BaseStation.Adapter(), basestation.Options{
		Clock:         clock.System{},
		WritesEnabled: cfg.BaseStation.WritesEnabled,
		Logger:        log,
	})
	defer func() { _ = repo.Close() }()
	if err := repo.Initialize(ctx); err != nil {
		return err
	}

	if cfg.Notify.Enabled {
		pub, err := notify.Connect(cfg.Notify.URL, cfg.Notify.Subject, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		repo.OnAircraftUpdated = pub.AircraftUpdated
	}

	nc, err := nats.Connect(cfg.Notify.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		if err := applyBatch(ctx, repo, msg.Data, onlyMissing); err != nil {
			log.Error("applying lookup batch", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	log.Info("lookupd started", "subject", subject, "only_missing", onlyMissing)
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func applyBatch(ctx context.Context, repo *basestation.Repository, data []byte, onlyMissing bool) error {
	var results []lookupResult
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("decoding lookup batch: %w", err)
	}

	lookups := make([]*basestation.AircraftLookup, 0, len(results))
	for _, res := range results {
		if res.ModeS == "" {
			continue
		}
		lookups = append(lookups, &basestation.AircraftLookup{
			ModeS:            res.ModeS,
			Registration:     res.Registration,
			Country:          res.Country,
			Manufacturer:     res.Manufacturer,
			Model:            res.Model,
			ICAOTypeCode:     res.ICAOTypeCode,
			Operator:         res.Operator,
			OperatorFlagCode: res.OperatorFlagCode,
			SerialNo:         res.SerialNo,
			YearBuilt:        res.YearBuilt,
		})
	}
	if len(lookups) == 0 {
		return nil
	}

	if _, err := repo.UpsertManyAircraftLookup(ctx, lookups, onlyMissing); err != nil {
		return fmt.Errorf("upserting %d lookups: %w", len(lookups), err)
	}
	return nil
}
