// Package drawfeed reads draw history from the PostgreSQL database that the
// upstream ingestion job populates. The feed is read-only.
package drawfeed

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/abrezinsky/lottorank/internal/errors"
	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/repository"
)

const (
	DefaultMaxOpenConns    = 4
	DefaultMaxIdleConns    = 2
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultPingTimeout     = 5 * time.Second
)

// pgUndefinedTable is the SQLSTATE for a missing relation
const pgUndefinedTable = "42P01"

const drawQuery = `SELECT drw_no, drw_no_date, drwt_no1, drwt_no2, drwt_no3, drwt_no4, drwt_no5, drwt_no6,
	bnus_no, first_winamnt, first_przwner_co FROM lotto_draws`

// Feed serves draws from the upstream lotto_draws table
type Feed struct {
	db *sql.DB
}

var _ repository.DrawProvider = (*Feed)(nil)

// New wraps an open database handle
func New(db *sql.DB) *Feed {
	return &Feed{db: db}
}

// Open connects to PostgreSQL with the given DSN and verifies the connection
func Open(ctx context.Context, dsn string) (*Feed, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open draw feed: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping draw feed: %w", err)
	}
	return New(db), nil
}

// Close closes the database connection
func (f *Feed) Close() error {
	return f.db.Close()
}

func scan(s interface{ Scan(...any) error }) (models.Draw, error) {
	var d models.Draw
	var jackpot, winners sql.NullInt64
	err := s.Scan(&d.DrawNumber, &d.Date,
		&d.Numbers[0], &d.Numbers[1], &d.Numbers[2], &d.Numbers[3], &d.Numbers[4], &d.Numbers[5],
		&d.Bonus, &jackpot, &winners)
	if err != nil {
		return d, err
	}
	if jackpot.Valid {
		amount := jackpot.Int64
		d.JackpotAmount = &amount
	}
	d.JackpotWinners = winners.Int64
	return d, nil
}

// classify turns a missing feed table into an Unavailable error
func classify(err error) error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == pgUndefinedTable {
		return errors.Wrap(err, errors.ErrUnavailable, "draw feed table missing")
	}
	return err
}

// LatestDraw returns the most recent draw
func (f *Feed) LatestDraw(ctx context.Context) (*models.Draw, error) {
	d, err := scan(f.db.QueryRowContext(ctx, drawQuery+` ORDER BY drw_no DESC LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &d, nil
}

// ListDraws returns every draw, most recent first
func (f *Feed) ListDraws(ctx context.Context) ([]models.Draw, error) {
	rows, err := f.db.QueryContext(ctx, drawQuery+` ORDER BY drw_no DESC`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var draws []models.Draw
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		draws = append(draws, d)
	}
	return draws, rows.Err()
}

// GetDraw returns one draw by number
func (f *Feed) GetDraw(ctx context.Context, drawNumber int) (*models.Draw, error) {
	d, err := scan(f.db.QueryRowContext(ctx, drawQuery+` WHERE drw_no = $1`, drawNumber))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &d, nil
}
