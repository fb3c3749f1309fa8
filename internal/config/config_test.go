package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircraft_db/internal/db"
)

func TestLoadBytesDefaults(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
basestation:
  path: /var/lib/tracker/basestation.sqb
  writes_enabled: true
trackhistory:
  type: postgres
  host: db.local
  database: trackhistory
  user: tracker
  password: hunter2
`))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.BaseStation.Type)
	assert.True(t, cfg.BaseStation.WritesEnabled)
	assert.Equal(t, 5432, cfg.TrackHistory.Port, "postgres port defaults")
	assert.Equal(t, 24*time.Hour, cfg.Retention.TruncateAfter)
	assert.Equal(t, 14*24*time.Hour, cfg.Retention.DeleteAfter)
	assert.Equal(t, time.Hour, cfg.Retention.Interval)
	assert.Equal(t, "nats://localhost:4222", cfg.Notify.URL)

	sqlite, ok := cfg.BaseStation.Adapter().(*db.SQLiteAdapter)
	require.True(t, ok)
	assert.Equal(t, "/var/lib/tracker/basestation.sqb", sqlite.Path)

	pg, ok := cfg.TrackHistory.Adapter().(*db.PostgresAdapter)
	require.True(t, ok)
	assert.Equal(t, "db.local", pg.Host)
}

func TestLoadBytesExpandsEnvironment(t *testing.T) {
	t.Setenv("TRACKER_DB_PASSWORD", "s3cret")

	cfg, err := LoadBytes([]byte(`
trackhistory:
  type: postgres
  host: db.local
  database: trackhistory
  password: ${TRACKER_DB_PASSWORD}
`))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.TrackHistory.Password)
}

func TestLoadBytesValidation(t *testing.T) {
	cases := map[string]string{
		"unknown type": `
basestation:
  type: oracle
`,
		"postgres without host": `
trackhistory:
  type: postgres
  database: trackhistory
`,
		"delete before truncate": `
retention:
  truncate_after: 48h
  delete_after: 24h
`,
		"archive without host": `
archive:
  enabled: true
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBytes([]byte(body))
			assert.Error(t, err)
		})
	}
}
