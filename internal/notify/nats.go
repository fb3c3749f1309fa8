// Package notify publishes aircraft change notifications over NATS, so
// downstream consumers (map views, loggers) learn about lookup results
// without polling the database.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"aircraft_db/internal/basestation"
)

// DefaultSubject is the subject aircraft updates are published on.
const DefaultSubject = "aircraft.updated"

// AircraftUpdate is the wire shape of one change notification.
type AircraftUpdate struct {
	ModeS        string    `json:"modes"`
	Registration *string   `json:"registration,omitempty"`
	Operator     *string   `json:"operator,omitempty"`
	Country      *string   `json:"country,omitempty"`
	ICAOTypeCode *string   `json:"icao_type_code,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Publisher publishes aircraft updates to NATS. Publish failures are logged
// and swallowed: notification loss must never fail the write that raised it.
type Publisher struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
}

// Connect dials url and returns a publisher on subject. An empty subject
// means DefaultSubject.
func Connect(url, subject string, log *slog.Logger) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if log == nil {
		log = slog.Default()
	}

	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{conn: conn, subject: subject, log: log}, nil
}

// Close flushes and drops the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// AircraftUpdated is shaped to hang directly off the repository's
// OnAircraftUpdated hook.
func (p *Publisher) AircraftUpdated(a *basestation.Aircraft) {
	update := AircraftUpdate{
		ModeS:        a.ModeS,
		Registration: a.Registration,
		Operator:     a.RegisteredOwners,
		Country:      a.ModeSCountry,
		ICAOTypeCode: a.ICAOTypeCode,
		LastModified: a.LastModified,
	}
	payload, err := json.Marshal(update)
	if err != nil {
		p.log.Warn("marshal aircraft update", "modes", a.ModeS, "err", err)
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.log.Warn("publish aircraft update", "modes", a.ModeS, "err", err)
	}
}
