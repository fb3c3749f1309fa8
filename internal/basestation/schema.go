package basestation

import "aircraft_db/internal/db"

// schemaFor returns the table definitions for the given engine. The column
// names and semantics are the on-disk contract; existing database files must
// keep working against them.
func schemaFor(kind db.Kind) string {
	if kind == db.Postgres {
		return schemaPostgres
	}
	return schemaSQLite
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS Locations (
	LocationID   INTEGER PRIMARY KEY AUTOINCREMENT,
	LocationName VARCHAR(300) NOT NULL,
	Latitude     REAL NOT NULL,
	Longitude    REAL NOT NULL,
	Altitude     REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS Sessions (
	SessionID  INTEGER PRIMARY KEY AUTOINCREMENT,
	LocationID INTEGER REFERENCES Locations (LocationID) ON DELETE SET NULL,
	StartTime  DATETIME NOT NULL,
	EndTime    DATETIME
);

CREATE TABLE IF NOT EXISTS Aircraft (
	AircraftID       INTEGER PRIMARY KEY AUTOINCREMENT,
	ModeS            VARCHAR(6) NOT NULL UNIQUE COLLATE NOCASE,
	ModeSCountry     VARCHAR(60),
	Registration     VARCHAR(20) COLLATE NOCASE,
	Manufacturer     VARCHAR(60),
	Type             VARCHAR(60),
	ICAOTypeCode     VARCHAR(10) COLLATE NOCASE,
	RegisteredOwners VARCHAR(100),
	OperatorFlagCode VARCHAR(20),
	SerialNo         VARCHAR(30),
	YearBuilt        VARCHAR(4),
	Interested       INTEGER NOT NULL DEFAULT 0,
	UserNotes        VARCHAR(300),
	UserString1      VARCHAR(40),
	UserTag          VARCHAR(80),
	FirstCreated     DATETIME NOT NULL,
	LastModified     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS Flights (
	FlightID          INTEGER PRIMARY KEY AUTOINCREMENT,
	SessionID         INTEGER NOT NULL REFERENCES Sessions (SessionID) ON DELETE CASCADE,
	AircraftID        INTEGER NOT NULL REFERENCES Aircraft (AircraftID) ON DELETE CASCADE,
	StartTime         DATETIME NOT NULL,
	EndTime           DATETIME,
	Callsign          VARCHAR(20) COLLATE NOCASE,
	FirstAltitude     INTEGER,
	FirstGroundSpeed  REAL,
	FirstLat          REAL,
	FirstLon          REAL,
	FirstTrack        REAL,
	FirstVerticalRate INTEGER,
	FirstSquawk       INTEGER,
	FirstIsOnGround   INTEGER NOT NULL DEFAULT 0,
	LastAltitude      INTEGER,
	LastGroundSpeed   REAL,
	LastLat           REAL,
	LastLon           REAL,
	LastTrack         REAL,
	LastVerticalRate  INTEGER,
	LastSquawk        INTEGER,
	LastIsOnGround    INTEGER NOT NULL DEFAULT 0,
	HadAlert          INTEGER NOT NULL DEFAULT 0,
	HadEmergency      INTEGER NOT NULL DEFAULT 0,
	HadSpi            INTEGER NOT NULL DEFAULT 0,
	NumPosMsgRec      INTEGER,
	NumADSBMsgRec     INTEGER,
	NumModeSMsgRec    INTEGER,
	NumIDMsgRec       INTEGER,
	NumAirPosMsgRec   INTEGER
);

CREATE INDEX IF NOT EXISTS FlightsAircraftID ON Flights (AircraftID);
CREATE INDEX IF NOT EXISTS FlightsSessionID  ON Flights (SessionID);
CREATE INDEX IF NOT EXISTS FlightsStartTime  ON Flights (StartTime);
CREATE INDEX IF NOT EXISTS FlightsCallsign   ON Flights (Callsign);

CREATE TABLE IF NOT EXISTS SystemEvents (
	SystemEventsID INTEGER PRIMARY KEY AUTOINCREMENT,
	TimeStamp      DATETIME NOT NULL,
	App            VARCHAR(15) NOT NULL,
	Msg            VARCHAR(100) NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS Locations (
	LocationID   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	LocationName TEXT NOT NULL,
	Latitude     DOUBLE PRECISION NOT NULL,
	Longitude    DOUBLE PRECISION NOT NULL,
	Altitude     DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS Sessions (
	SessionID  BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	LocationID BIGINT REFERENCES Locations (LocationID) ON DELETE SET NULL,
	StartTime  TIMESTAMPTZ NOT NULL,
	EndTime    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS Aircraft (
	AircraftID       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	ModeS            TEXT NOT NULL,
	ModeSCountry     TEXT,
	Registration     TEXT,
	Manufacturer     TEXT,
	Type             TEXT,
	ICAOTypeCode     TEXT,
	RegisteredOwners TEXT,
	OperatorFlagCode TEXT,
	SerialNo         TEXT,
	YearBuilt        TEXT,
	Interested       INTEGER NOT NULL DEFAULT 0,
	UserNotes        TEXT,
	UserString1      TEXT,
	UserTag          TEXT,
	FirstCreated     TIMESTAMPTZ NOT NULL,
	LastModified     TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS AircraftModeS ON Aircraft (UPPER(ModeS));

CREATE TABLE IF NOT EXISTS Flights (
	FlightID          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	SessionID         BIGINT NOT NULL REFERENCES Sessions (SessionID) ON DELETE CASCADE,
	AircraftID        BIGINT NOT NULL REFERENCES Aircraft (AircraftID) ON DELETE CASCADE,
	StartTime         TIMESTAMPTZ NOT NULL,
	EndTime           TIMESTAMPTZ,
	Callsign          TEXT,
	FirstAltitude     INTEGER,
	FirstGroundSpeed  DOUBLE PRECISION,
	FirstLat          DOUBLE PRECISION,
	FirstLon          DOUBLE PRECISION,
	FirstTrack        DOUBLE PRECISION,
	FirstVerticalRate INTEGER,
	FirstSquawk       INTEGER,
	FirstIsOnGround   INTEGER NOT NULL DEFAULT 0,
	LastAltitude      INTEGER,
	LastGroundSpeed   DOUBLE PRECISION,
	LastLat           DOUBLE PRECISION,
	LastLon           DOUBLE PRECISION,
	LastTrack         DOUBLE PRECISION,
	LastVerticalRate  INTEGER,
	LastSquawk        INTEGER,
	LastIsOnGround    INTEGER NOT NULL DEFAULT 0,
	HadAlert          INTEGER NOT NULL DEFAULT 0,
	HadEmergency      INTEGER NOT NULL DEFAULT 0,
	HadSpi            INTEGER NOT NULL DEFAULT 0,
	NumPosMsgRec      INTEGER,
	NumADSBMsgRec     INTEGER,
	NumModeSMsgRec    INTEGER,
	NumIDMsgRec       INTEGER,
	NumAirPosMsgRec   INTEGER
);

CREATE INDEX IF NOT EXISTS FlightsAircraftID ON Flights (AircraftID);
CREATE INDEX IF NOT EXISTS FlightsSessionID  ON Flights (SessionID);
CREATE INDEX IF NOT EXISTS FlightsStartTime  ON Flights (StartTime);
CREATE INDEX IF NOT EXISTS FlightsCallsign   ON Flights (Callsign);

CREATE TABLE IF NOT EXISTS SystemEvents (
	SystemEventsID BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	TimeStamp      TIMESTAMPTZ NOT NULL,
	App            TEXT NOT NULL,
	Msg            TEXT NOT NULL
);
`
