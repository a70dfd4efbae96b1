package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS locations (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_name
    ON locations(name);

CREATE TABLE IF NOT EXISTS boxes (
    id             TEXT PRIMARY KEY,
    barcode        TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'ACTIVE'
                   CHECK (status IN ('PENDING', 'ACTIVE', 'SEALED', 'IN_TRANSIT', 'RECEIVED')),
    start_location TEXT NOT NULL,
    created_at     DATETIME NOT NULL,
    sealed_at      DATETIME,
    in_transit_at  DATETIME,
    received_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_boxes_barcode_open
    ON boxes(barcode) WHERE status <> 'RECEIVED';

CREATE TABLE IF NOT EXISTS items (
    id        TEXT PRIMARY KEY,
    box_id    TEXT NOT NULL REFERENCES boxes(id) ON DELETE CASCADE,
    barcode   TEXT NOT NULL UNIQUE,
    status    TEXT NOT NULL DEFAULT 'SCANNED' CHECK (status IN ('SCANNED', 'DELIVERED')),
    timestamp DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_box
    ON items(box_id, timestamp);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
