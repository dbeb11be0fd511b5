package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"mlsscout/internal/types"

	_ "github.com/sijms/go-ora/v2"
)

const acceptedTable = "MLS_ACCEPTED_LISTINGS"

// createTable is idempotent: ORA-00955 (name already used) is swallowed.
const createTable = `
BEGIN
	EXECUTE IMMEDIATE 'CREATE TABLE ` + acceptedTable + ` (
		RUN_ID      VARCHAR2(36)   NOT NULL,
		RUN_AT      TIMESTAMP      NOT NULL,
		CITY        VARCHAR2(128),
		MLS_NUMBER  VARCHAR2(32)   NOT NULL,
		DETAIL_URL  VARCHAR2(1024),
		PAYLOAD     CLOB,
		CONSTRAINT ` + acceptedTable + `_PK PRIMARY KEY (RUN_ID, MLS_NUMBER)
	)';
EXCEPTION
	WHEN OTHERS THEN
		IF SQLCODE != -955 THEN
			RAISE;
		END IF;
END;`

const insertAccepted = `
	INSERT INTO ` + acceptedTable + ` (RUN_ID, RUN_AT, CITY, MLS_NUMBER, DETAIL_URL, PAYLOAD)
	VALUES (:1, :2, :3, :4, :5, :6)
`

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			url.PathEscape(username), url.PathEscape(password), host, port, service, url.PathEscape(walletLocation))
	}

	// Fallback to standard connection without wallet
	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password), // escapes automatically
		Host:     host + ":" + port,
		Path:     "/" + service, // keep full service name
		RawQuery: "ssl=true",    // ADB requires TCPS on 1522
	}).String()
}

// DBConfig holds database connection configuration
type DBConfig struct {
	Host           string
	Port           string
	Service        string
	Username       string
	Password       string
	WalletLocation string
}

// Database holds the database connection and configuration
type Database struct {
	db     *sql.DB
	config DBConfig
}

// Run identifies one invocation whose accepted listings are being saved.
type Run struct {
	ID   string
	At   time.Time
	City string
}

// NewDatabase opens and pings the connection.
func NewDatabase(ctx context.Context, config DBConfig) (*Database, error) {
	connStr := dsn(config.Username, config.Password, config.Host, config.Port, config.Service, config.WalletLocation)

	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		db:     db,
		config: config,
	}, nil
}

// Target describes where the connection points, without credentials.
func (d *Database) Target() string {
	return d.config.Target()
}

// Target describes the configured database as user@host:port/service.
func (c DBConfig) Target() string {
	t := fmt.Sprintf("%s@%s:%s/%s", c.Username, c.Host, c.Port, c.Service)
	if c.WalletLocation != "" {
		t += " (wallet)"
	}
	return t
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// EnsureSchema creates the accepted-listings table when missing.
func (d *Database) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", acceptedTable, err)
	}
	return nil
}

// SaveAccepted inserts one row per accepted listing in a single transaction.
func (d *Database) SaveAccepted(ctx context.Context, run Run, accepted []types.Candidate) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertAccepted)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range accepted {
		if _, err := stmt.ExecContext(ctx, run.ID, run.At, run.City, c.MLSNumber, c.DetailURLPath, string(c.Raw)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", c.MLSNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit accepted listings: %w", err)
	}
	return nil
}
