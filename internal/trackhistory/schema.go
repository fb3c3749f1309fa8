package trackhistory

import "aircraft_db/internal/db"

func schemaFor(kind db.Kind) string {
	if kind == db.Postgres {
		return schemaPostgres
	}
	return schemaSQLite
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS Country (
	CountryID  INTEGER PRIMARY KEY AUTOINCREMENT,
	Name       VARCHAR(80) NOT NULL UNIQUE COLLATE NOCASE,
	CreatedUtc DATETIME NOT NULL,
	UpdatedUtc DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS Manufacturer (
	ManufacturerID INTEGER PRIMARY KEY AUTOINCREMENT,
	Name           VARCHAR(80) NOT NULL UNIQUE COLLATE NOCASE,
	CreatedUtc     DATETIME NOT NULL,
	UpdatedUtc     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS Model (
	ModelID    INTEGER PRIMARY KEY AUTOINCREMENT,
	Name       VARCHAR(80) NOT NULL UNIQUE COLLATE NOCASE,
	CreatedUtc DATETIME NOT NULL,
	UpdatedUtc DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS Receiver (
	ReceiverID INTEGER PRIMARY KEY AUTOINCREMENT,
	Name       VARCHAR(255) NOT NULL UNIQUE COLLATE NOCASE,
	CreatedUtc DATETIME NOT NULL,
	UpdatedUtc DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS Operator (
	OperatorID INTEGER PRIMARY KEY AUTOINCREMENT,
	Icao       VARCHAR(3) COLLATE NOCASE,
	Name       VARCHAR(100) COLLATE NOCASE,
	CreatedUtc DATETIME NOT NULL,
	UpdatedUtc DATETIME NOT NULL,
	UNIQUE (Icao, Name)
);

CREATE TABLE IF NOT EXISTS AircraftType (
	AircraftTypeID INTEGER PRIMARY KEY AUTOINCREMENT,
	Icao           VARCHAR(4) NOT NULL UNIQUE COLLATE NOCASE,
	ManufacturerID INTEGER REFERENCES Manufacturer (ManufacturerID) ON DELETE SET NULL,
	ModelID        INTEGER REFERENCES Model (ModelID) ON DELETE SET NULL,
	CreatedUtc     DATETIME NOT NULL,
	UpdatedUtc     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS Aircraft (
	AircraftID     INTEGER PRIMARY KEY AUTOINCREMENT,
	Icao           VARCHAR(6) NOT NULL UNIQUE COLLATE NOCASE,
	Registration   VARCHAR(20),
	CountryID      INTEGER REFERENCES Country (CountryID) ON DELETE SET NULL,
	OperatorID     INTEGER REFERENCES Operator (OperatorID) ON DELETE SET NULL,
	AircraftTypeID INTEGER REFERENCES AircraftType (AircraftTypeID) ON DELETE SET NULL,
	IsMilitary     INTEGER NOT NULL DEFAULT 0,
	CreatedUtc     DATETIME NOT NULL,
	UpdatedUtc     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS TrackHistory (
	TrackHistoryID INTEGER PRIMARY KEY AUTOINCREMENT,
	AircraftID     INTEGER NOT NULL REFERENCES Aircraft (AircraftID) ON DELETE CASCADE,
	IsPreserved    INTEGER NOT NULL DEFAULT 0,
	CreatedUtc     DATETIME NOT NULL,
	UpdatedUtc     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS TrackHistoryAircraftID ON TrackHistory (AircraftID);
CREATE INDEX IF NOT EXISTS TrackHistoryCreatedUtc ON TrackHistory (CreatedUtc);

CREATE TABLE IF NOT EXISTS TrackHistoryState (
	TrackHistoryStateID INTEGER PRIMARY KEY AUTOINCREMENT,
	TrackHistoryID      INTEGER NOT NULL REFERENCES TrackHistory (TrackHistoryID) ON DELETE CASCADE,
	TimestampUtc        DATETIME NOT NULL,
	SequenceNumber      INTEGER NOT NULL,
	ReceiverID          INTEGER REFERENCES Receiver (ReceiverID) ON DELETE SET NULL,
	SignalLevel         INTEGER,
	Latitude            REAL,
	Longitude           REAL,
	IsMlat              INTEGER,
	Altitude            INTEGER,
	TargetAltitude      INTEGER,
	AirPressureInHg     REAL,
	GroundSpeed         REAL,
	Track               REAL,
	TrackIsHeading      INTEGER,
	TargetTrack         REAL,
	VerticalRate        INTEGER,
	Squawk              INTEGER,
	IdentActive         INTEGER,
	Callsign            VARCHAR(20),
	IsCallsignSuspect   INTEGER,
	CreatedUtc          DATETIME NOT NULL,
	UpdatedUtc          DATETIME NOT NULL,
	UNIQUE (TrackHistoryID, SequenceNumber)
);

CREATE INDEX IF NOT EXISTS TrackHistoryStateReceiverID ON TrackHistoryState (ReceiverID);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS Country (
	CountryID  BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	Name       TEXT NOT NULL,
	CreatedUtc TIMESTAMPTZ NOT NULL,
	UpdatedUtc TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS CountryName ON Country (UPPER(Name));

CREATE TABLE IF NOT EXISTS Manufacturer (
	ManufacturerID BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	Name           TEXT NOT NULL,
	CreatedUtc     TIMESTAMPTZ NOT NULL,
	UpdatedUtc     TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ManufacturerName ON Manufacturer (UPPER(Name));

CREATE TABLE IF NOT EXISTS Model (
	ModelID    BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	Name       TEXT NOT NULL,
	CreatedUtc TIMESTAMPTZ NOT NULL,
	UpdatedUtc TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ModelName ON Model (UPPER(Name));

CREATE TABLE IF NOT EXISTS Receiver (
	ReceiverID BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	Name       TEXT NOT NULL,
	CreatedUtc TIMESTAMPTZ NOT NULL,
	UpdatedUtc TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ReceiverName ON Receiver (UPPER(Name));

CREATE TABLE IF NOT EXISTS Operator (
	OperatorID BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	Icao       TEXT,
	Name       TEXT,
	CreatedUtc TIMESTAMPTZ NOT NULL,
	UpdatedUtc TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS OperatorIcaoName ON Operator (UPPER(COALESCE(Icao, '')), UPPER(COALESCE(Name, '')));

CREATE TABLE IF NOT EXISTS AircraftType (
	AircraftTypeID BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	Icao           TEXT NOT NULL,
	ManufacturerID BIGINT REFERENCES Manufacturer (ManufacturerID) ON DELETE SET NULL,
	ModelID        BIGINT REFERENCES Model (ModelID) ON DELETE SET NULL,
	CreatedUtc     TIMESTAMPTZ NOT NULL,
	UpdatedUtc     TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS AircraftTypeIcao ON AircraftType (UPPER(Icao));

CREATE TABLE IF NOT EXISTS Aircraft (
	AircraftID     BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	Icao           TEXT NOT NULL,
	Registration   TEXT,
	CountryID      BIGINT REFERENCES Country (CountryID) ON DELETE SET NULL,
	OperatorID     BIGINT REFERENCES Operator (OperatorID) ON DELETE SET NULL,
	AircraftTypeID BIGINT REFERENCES AircraftType (AircraftTypeID) ON DELETE SET NULL,
	IsMilitary     INTEGER NOT NULL DEFAULT 0,
	CreatedUtc     TIMESTAMPTZ NOT NULL,
	UpdatedUtc     TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS AircraftIcao ON Aircraft (UPPER(Icao));

CREATE TABLE IF NOT EXISTS TrackHistory (
	TrackHistoryID BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	AircraftID     BIGINT NOT NULL REFERENCES Aircraft (AircraftID) ON DELETE CASCADE,
	IsPreserved    INTEGER NOT NULL DEFAULT 0,
	CreatedUtc     TIMESTAMPTZ NOT NULL,
	UpdatedUtc     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS TrackHistoryAircraftID ON TrackHistory (AircraftID);
CREATE INDEX IF NOT EXISTS TrackHistoryCreatedUtc ON TrackHistory (CreatedUtc);

CREATE TABLE IF NOT EXISTS TrackHistoryState (
	TrackHistoryStateID BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	TrackHistoryID      BIGINT NOT NULL REFERENCES TrackHistory (TrackHistoryID) ON DELETE CASCADE,
	TimestampUtc        TIMESTAMPTZ NOT NULL,
	SequenceNumber      BIGINT NOT NULL,
	ReceiverID          BIGINT REFERENCES Receiver (ReceiverID) ON DELETE SET NULL,
	SignalLevel         INTEGER,
	Latitude            DOUBLE PRECISION,
	Longitude           DOUBLE PRECISION,
	IsMlat              INTEGER,
	Altitude            INTEGER,
	TargetAltitude      INTEGER,
	AirPressureInHg     DOUBLE PRECISION,
	GroundSpeed         DOUBLE PRECISION,
	Track               DOUBLE PRECISION,
	TrackIsHeading      INTEGER,
	TargetTrack         DOUBLE PRECISION,
	VerticalRate        INTEGER,
	Squawk              INTEGER,
	IdentActive         INTEGER,
	Callsign            TEXT,
	IsCallsignSuspect   INTEGER,
	CreatedUtc          TIMESTAMPTZ NOT NULL,
	UpdatedUtc          TIMESTAMPTZ NOT NULL,
	UNIQUE (TrackHistoryID, SequenceNumber)
);

CREATE INDEX IF NOT EXISTS TrackHistoryStateReceiverID ON TrackHistoryState (ReceiverID);
`
