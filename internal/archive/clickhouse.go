// Package archive provides the cold store for expired track histories:
// states are batch-written to ClickHouse before the retention pass deletes
// them from the live database.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"aircraft_db/internal/trackhistory"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseArchive writes expired track-history states to ClickHouse. It
// implements the retention pass's archive sink.
type ClickHouseArchive struct {
	conn driver.Conn
}

var _ trackhistory.ArchiveSink = (*ClickHouseArchive)(nil)

// Conn returns the underlying ClickHouse connection for direct queries.
func (a *ClickHouseArchive) Conn() driver.Conn {
	return a.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseArchive, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseArchive{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (a *ClickHouseArchive) Close() error {
	return a.conn.Close()
}

// CreateSchema creates the archive table.
func (a *ClickHouseArchive) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS track_states (
		track_history_id    UInt64,
		aircraft_id         UInt64,
		sequence_number     UInt64,
		timestamp           DateTime64(3),
		receiver_id         Nullable(UInt64),
		signal_level        Nullable(Int32),
		latitude            Nullable(Float64),
		longitude           Nullable(Float64),
		is_mlat             Nullable(UInt8),
		altitude            Nullable(Int32),
		target_altitude     Nullable(Int32),
		air_pressure_inhg   Nullable(Float64),
		ground_speed        Nullable(Float64),
		track               Nullable(Float64),
		track_is_heading    Nullable(UInt8),
		target_track        Nullable(Float64),
		vertical_rate       Nullable(Int32),
		squawk              Nullable(Int32),
		ident_active        Nullable(UInt8),
		callsign            LowCardinality(Nullable(String)),
		callsign_suspect    Nullable(UInt8),
		history_created_at  DateTime64(3),
		archived_at         DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(timestamp)
	ORDER BY (track_history_id, sequence_number)
	SETTINGS index_granularity = 8192`

	if err := a.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ArchiveStates batch-writes one history's states. The caller deletes the
// live rows only after this returns nil.
func (a *ClickHouseArchive) ArchiveStates(ctx context.Context, history *trackhistory.TrackHistory, states []*trackhistory.TrackHistoryState) error {
	if len(states) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO track_states (track_history_id, aircraft_id, sequence_number, timestamp,
			receiver_id, signal_level, latitude, longitude, is_mlat, altitude, target_altitude,
			air_pressure_inhg, ground_speed, track, track_is_heading, target_track,
			vertical_rate, squawk, ident_active, callsign, callsign_suspect, history_created_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, s := range states {
		err = batch.Append(uint64(history.ID), uint64(history.AircraftID), uint64(s.SequenceNumber),
			s.TimestampUtc, uint64Ptr(s.ReceiverID), int32Ptr(s.SignalLevel),
			s.Latitude, s.Longitude, boolPtr(s.IsMlat), int32Ptr(s.Altitude), int32Ptr(s.TargetAltitude),
			s.AirPressureInHg, s.GroundSpeed, s.Track, boolPtr(s.TrackIsHeading), s.TargetTrack,
			int32Ptr(s.VerticalRate), int32Ptr(s.Squawk), boolPtr(s.IdentActive),
			s.Callsign, boolPtr(s.IsCallsignSuspect), history.CreatedUtc)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// CountArchived reports how many states are archived for one history.
func (a *ClickHouseArchive) CountArchived(ctx context.Context, historyID int64) (uint64, error) {
	var count uint64
	err := a.conn.QueryRow(ctx,
		`SELECT count() FROM track_states WHERE track_history_id = ?`, uint64(historyID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count archived states: %w", err)
	}
	return count, nil
}

// DeleteOlderThan drops archived states whose timestamp predates cutoff.
func (a *ClickHouseArchive) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	err := a.conn.Exec(ctx,
		`ALTER TABLE track_states DELETE WHERE timestamp < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("delete archived states: %w", err)
	}
	return nil
}

func uint64Ptr(p *int64) *uint64 {
	if p == nil {
		return nil
	}
	v := uint64(*p)
	return &v
}

func int32Ptr(p *int) *int32 {
	if p == nil {
		return nil
	}
	v := int32(*p)
	return &v
}

func boolPtr(p *bool) *uint8 {
	if p == nil {
		return nil
	}
	var v uint8
	if *p {
		v = 1
	}
	return &v
}
