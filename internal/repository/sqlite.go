package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/lottorank/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS draws (
			draw_number INTEGER PRIMARY KEY,
			draw_date DATETIME NOT NULL,
			n1 INTEGER NOT NULL,
			n2 INTEGER NOT NULL,
			n3 INTEGER NOT NULL,
			n4 INTEGER NOT NULL,
			n5 INTEGER NOT NULL,
			n6 INTEGER NOT NULL,
			bonus INTEGER NOT NULL,
			jackpot_amount INTEGER,
			jackpot_winners INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS simulation_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			strategy_key TEXT NOT NULL,
			draw_number INTEGER NOT NULL,
			total_tickets INTEGER NOT NULL,
			rank1_count INTEGER NOT NULL DEFAULT 0,
			rank2_count INTEGER NOT NULL DEFAULT 0,
			rank3_count INTEGER NOT NULL DEFAULT 0,
			rank4_count INTEGER NOT NULL DEFAULT 0,
			rank5_count INTEGER NOT NULL DEFAULT 0,
			no_win_count INTEGER NOT NULL DEFAULT 0,
			estimated_prize INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE(strategy_key, draw_number)
		)`,
		`CREATE TABLE IF NOT EXISTS weekly_rankings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			draw_number INTEGER NOT NULL,
			strategy_key TEXT NOT NULL,
			weekly_score REAL NOT NULL,
			weighted_score REAL NOT NULL,
			rank_position INTEGER NOT NULL,
			previous_rank INTEGER,
			rank_change INTEGER NOT NULL DEFAULT 0,
			rank1_count INTEGER NOT NULL DEFAULT 0,
			rank2_count INTEGER NOT NULL DEFAULT 0,
			rank3_count INTEGER NOT NULL DEFAULT 0,
			rank4_count INTEGER NOT NULL DEFAULT 0,
			rank5_count INTEGER NOT NULL DEFAULT 0,
			total_wins INTEGER NOT NULL DEFAULT 0,
			total_tickets INTEGER NOT NULL DEFAULT 0,
			estimated_prize INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE(draw_number, strategy_key)
		)`,
		`CREATE TABLE IF NOT EXISTS simulation_jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			total_tasks INTEGER NOT NULL,
			completed_tasks INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			current_strategy TEXT NOT NULL DEFAULT '',
			tickets_per_draw INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			completed_at DATETIME,
			error_message TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_draw ON simulation_results(draw_number)`,
		`CREATE INDEX IF NOT EXISTS idx_rankings_strategy ON weekly_rankings(strategy_key, draw_number)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON simulation_jobs(status)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ==================== Draw Methods ====================

const drawColumns = `draw_number, draw_date, n1, n2, n3, n4, n5, n6, bonus, jackpot_amount, jackpot_winners`

func scanDraw(s rowScanner) (models.Draw, error) {
	var d models.Draw
	var jackpot sql.NullInt64
	err := s.Scan(&d.DrawNumber, &d.Date,
		&d.Numbers[0], &d.Numbers[1], &d.Numbers[2], &d.Numbers[3], &d.Numbers[4], &d.Numbers[5],
		&d.Bonus, &jackpot, &d.JackpotWinners)
	if err != nil {
		return d, err
	}
	if jackpot.Valid {
		amount := jackpot.Int64
		d.JackpotAmount = &amount
	}
	return d, nil
}

// LatestDraw returns the draw with the highest number
func (r *Repository) LatestDraw(ctx context.Context) (*models.Draw, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+drawColumns+` FROM draws ORDER BY draw_number DESC LIMIT 1`)
	d, err := scanDraw(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDraws returns all draws, most recent first
func (r *Repository) ListDraws(ctx context.Context) ([]models.Draw, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+drawColumns+` FROM draws ORDER BY draw_number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var draws []models.Draw
	for rows.Next() {
		d, err := scanDraw(rows)
		if err != nil {
			return nil, err
		}
		draws = append(draws, d)
	}
	return draws, rows.Err()
}

// GetDraw returns one draw by number
func (r *Repository) GetDraw(ctx context.Context, drawNumber int) (*models.Draw, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+drawColumns+` FROM draws WHERE draw_number = ?`, drawNumber)
	d, err := scanDraw(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// SaveDraws inserts draws, ignoring numbers that already exist.
// Draw history is owned by an external feed; this exists for seeding local stores.
func (r *Repository) SaveDraws(ctx context.Context, draws ...models.Draw) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO draws (`+drawColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range draws {
		var jackpot sql.NullInt64
		if d.JackpotAmount != nil {
			jackpot = sql.NullInt64{Int64: *d.JackpotAmount, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, d.DrawNumber, d.Date.UTC(),
			d.Numbers[0], d.Numbers[1], d.Numbers[2], d.Numbers[3], d.Numbers[4], d.Numbers[5],
			d.Bonus, jackpot, d.JackpotWinners); err != nil {
			return fmt.Errorf("insert draw %d: %w", d.DrawNumber, err)
		}
	}
	return tx.Commit()
}

// ==================== Result Methods ====================

const resultColumns = `id, strategy_key, draw_number, total_tickets, rank1_count, rank2_count,
	rank3_count, rank4_count, rank5_count, no_win_count, estimated_prize, created_at`

func scanResult(s rowScanner) (models.SimulationResult, error) {
	var res models.SimulationResult
	err := s.Scan(&res.ID, &res.StrategyKey, &res.DrawNumber, &res.TotalTickets,
		&res.Rank1Count, &res.Rank2Count, &res.Rank3Count, &res.Rank4Count, &res.Rank5Count,
		&res.NoWinCount, &res.EstimatedPrize, &res.CreatedAt)
	return res, err
}

func (r *Repository) queryResults(ctx context.Context, query string, args ...any) ([]models.SimulationResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.SimulationResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ResultExists reports whether a result was stored for the pair
func (r *Repository) ResultExists(ctx context.Context, strategyKey string, drawNumber int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM simulation_results WHERE strategy_key = ? AND draw_number = ?)`,
		strategyKey, drawNumber).Scan(&exists)
	return exists, err
}

// SaveResult stores a result unless one already exists for the same pair.
// created is false when an existing row was kept.
func (r *Repository) SaveResult(ctx context.Context, res models.SimulationResult) (bool, error) {
	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	out, err := r.db.ExecContext(ctx, `
		INSERT INTO simulation_results (strategy_key, draw_number, total_tickets, rank1_count, rank2_count,
			rank3_count, rank4_count, rank5_count, no_win_count, estimated_prize, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(strategy_key, draw_number) DO NOTHING`,
		res.StrategyKey, res.DrawNumber, res.TotalTickets, res.Rank1Count, res.Rank2Count,
		res.Rank3Count, res.Rank4Count, res.Rank5Count, res.NoWinCount, res.EstimatedPrize, createdAt.UTC())
	if err != nil {
		return false, err
	}
	n, err := out.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetResult returns the stored result for a pair
func (r *Repository) GetResult(ctx context.Context, strategyKey string, drawNumber int) (*models.SimulationResult, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM simulation_results
		WHERE strategy_key = ? AND draw_number = ?`, strategyKey, drawNumber)
	res, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListResultsByStrategy returns a strategy's results, most recent draw first
func (r *Repository) ListResultsByStrategy(ctx context.Context, strategyKey string) ([]models.SimulationResult, error) {
	return r.queryResults(ctx, `SELECT `+resultColumns+` FROM simulation_results
		WHERE strategy_key = ? ORDER BY draw_number DESC`, strategyKey)
}

// ListResultsByDraw returns all results for a draw ordered by strategy key
func (r *Repository) ListResultsByDraw(ctx context.Context, drawNumber int) ([]models.SimulationResult, error) {
	return r.queryResults(ctx, `SELECT `+resultColumns+` FROM simulation_results
		WHERE draw_number = ? ORDER BY strategy_key`, drawNumber)
}

// DistinctStrategyKeys lists every strategy that has at least one result
func (r *Repository) DistinctStrategyKeys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT strategy_key FROM simulation_results ORDER BY strategy_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SummarizeResults sums results per strategy over all draws
func (r *Repository) SummarizeResults(ctx context.Context) ([]ResultTotals, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strategy_key, COUNT(*), SUM(total_tickets), SUM(rank1_count), SUM(rank2_count),
			SUM(rank3_count), SUM(rank4_count), SUM(rank5_count), SUM(estimated_prize)
		FROM simulation_results
		GROUP BY strategy_key
		ORDER BY strategy_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []ResultTotals
	for rows.Next() {
		var t ResultTotals
		if err := rows.Scan(&t.StrategyKey, &t.Draws, &t.TotalTickets, &t.Rank1Count, &t.Rank2Count,
			&t.Rank3Count, &t.Rank4Count, &t.Rank5Count, &t.EstimatedPrize); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// ==================== Ranking Methods ====================

const rankingColumns = `id, draw_number, strategy_key, weekly_score, weighted_score, rank_position,
	previous_rank, rank_change, rank1_count, rank2_count, rank3_count, rank4_count, rank5_count,
	total_wins, total_tickets, estimated_prize, created_at`

func scanRanking(s rowScanner) (models.WeeklyRanking, error) {
	var w models.WeeklyRanking
	var prev sql.NullInt64
	err := s.Scan(&w.ID, &w.DrawNumber, &w.StrategyKey, &w.WeeklyScore, &w.WeightedScore, &w.RankPosition,
		&prev, &w.RankChange, &w.Rank1Count, &w.Rank2Count, &w.Rank3Count, &w.Rank4Count, &w.Rank5Count,
		&w.TotalWins, &w.TotalTickets, &w.EstimatedPrize, &w.CreatedAt)
	if err != nil {
		return w, err
	}
	if prev.Valid {
		p := int(prev.Int64)
		w.PreviousRank = &p
	}
	return w, nil
}

func (r *Repository) queryRankings(ctx context.Context, query string, args ...any) ([]models.WeeklyRanking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rankings []models.WeeklyRanking
	for rows.Next() {
		w, err := scanRanking(rows)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, w)
	}
	return rankings, rows.Err()
}

// RankingsExist reports whether a leaderboard was published for the draw
func (r *Repository) RankingsExist(ctx context.Context, drawNumber int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM weekly_rankings WHERE draw_number = ?)`, drawNumber).Scan(&exists)
	return exists, err
}

// SaveRankings stores a full leaderboard in one transaction
func (r *Repository) SaveRankings(ctx context.Context, rankings []models.WeeklyRanking) error {
	if len(rankings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO weekly_rankings (draw_number, strategy_key, weekly_score, weighted_score, rank_position,
			previous_rank, rank_change, rank1_count, rank2_count, rank3_count, rank4_count, rank5_count,
			total_wins, total_tickets, estimated_prize, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, w := range rankings {
		var prev sql.NullInt64
		if w.PreviousRank != nil {
			prev = sql.NullInt64{Int64: int64(*w.PreviousRank), Valid: true}
		}
		createdAt := w.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.ExecContext(ctx, w.DrawNumber, w.StrategyKey, w.WeeklyScore, w.WeightedScore,
			w.RankPosition, prev, w.RankChange, w.Rank1Count, w.Rank2Count, w.Rank3Count, w.Rank4Count,
			w.Rank5Count, w.TotalWins, w.TotalTickets, w.EstimatedPrize, createdAt.UTC()); err != nil {
			return fmt.Errorf("insert ranking %s/%d: %w", w.StrategyKey, w.DrawNumber, err)
		}
	}
	return tx.Commit()
}

// ListRankingsByDraw returns a published leaderboard ordered by position
func (r *Repository) ListRankingsByDraw(ctx context.Context, drawNumber int) ([]models.WeeklyRanking, error) {
	return r.queryRankings(ctx, `SELECT `+rankingColumns+` FROM weekly_rankings
		WHERE draw_number = ? ORDER BY rank_position`, drawNumber)
}

// RecentRankings returns a strategy's rows before beforeDraw, most recent first
func (r *Repository) RecentRankings(ctx context.Context, strategyKey string, beforeDraw, limit int) ([]models.WeeklyRanking, error) {
	return r.queryRankings(ctx, `SELECT `+rankingColumns+` FROM weekly_rankings
		WHERE strategy_key = ? AND draw_number < ?
		ORDER BY draw_number DESC LIMIT ?`, strategyKey, beforeDraw, limit)
}

// RankAt returns a strategy's position in a draw's leaderboard
func (r *Repository) RankAt(ctx context.Context, strategyKey string, drawNumber int) (int, bool, error) {
	var rank int
	err := r.db.QueryRowContext(ctx,
		`SELECT rank_position FROM weekly_rankings WHERE strategy_key = ? AND draw_number = ?`,
		strategyKey, drawNumber).Scan(&rank)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rank, true, nil
}

// LatestRankedDraw returns the highest draw number with a published leaderboard
func (r *Repository) LatestRankedDraw(ctx context.Context) (int, bool, error) {
	var n sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(draw_number) FROM weekly_rankings`).Scan(&n); err != nil {
		return 0, false, err
	}
	if !n.Valid {
		return 0, false, nil
	}
	return int(n.Int64), true, nil
}

// ListRankingsByStrategy returns a strategy's ranking history, most recent first
func (r *Repository) ListRankingsByStrategy(ctx context.Context, strategyKey string) ([]models.WeeklyRanking, error) {
	return r.queryRankings(ctx, `SELECT `+rankingColumns+` FROM weekly_rankings
		WHERE strategy_key = ? ORDER BY draw_number DESC`, strategyKey)
}

// ==================== Job Methods ====================

const jobColumns = `id, total_tasks, completed_tasks, status, current_strategy, tickets_per_draw,
	started_at, completed_at, error_message`

func scanJob(s rowScanner) (models.SimulationJob, error) {
	var j models.SimulationJob
	var status string
	var completedAt sql.NullTime
	err := s.Scan(&j.ID, &j.TotalTasks, &j.CompletedTasks, &status, &j.CurrentStrategy, &j.TicketsPerDraw,
		&j.StartedAt, &completedAt, &j.ErrorMessage)
	if err != nil {
		return j, err
	}
	j.Status = models.JobStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}
	return j, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// CreateJob inserts job and sets its ID
func (r *Repository) CreateJob(ctx context.Context, job *models.SimulationJob) error {
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO simulation_jobs (total_tasks, completed_tasks, status, current_strategy, tickets_per_draw,
			started_at, completed_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.TotalTasks, job.CompletedTasks, string(job.Status), job.CurrentStrategy, job.TicketsPerDraw,
		job.StartedAt.UTC(), nullTime(job.CompletedAt), job.ErrorMessage)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	job.ID = id
	return nil
}

// UpdateJob overwrites the mutable fields of a job
func (r *Repository) UpdateJob(ctx context.Context, job models.SimulationJob) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE simulation_jobs
		SET total_tasks = ?, completed_tasks = ?, status = ?, current_strategy = ?, completed_at = ?, error_message = ?
		WHERE id = ?`,
		job.TotalTasks, job.CompletedTasks, string(job.Status), job.CurrentStrategy, nullTime(job.CompletedAt), job.ErrorMessage, job.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestJob returns the most recently created job
func (r *Repository) LatestJob(ctx context.Context) (*models.SimulationJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM simulation_jobs ORDER BY id DESC LIMIT 1`)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// PauseRunningJobs marks jobs left RUNNING by a previous process as PAUSED
func (r *Repository) PauseRunningJobs(ctx context.Context, reason string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE simulation_jobs SET status = ?, completed_at = ?, error_message = ?
		WHERE status = ?`,
		string(models.JobPaused), time.Now().UTC(), reason, string(models.JobRunning))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting updates a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("setting key is empty")
	}
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}
