package drawfeed

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/abrezinsky/lottorank/internal/errors"
	"github.com/abrezinsky/lottorank/internal/repository"
)

var drawCols = []string{"drw_no", "drw_no_date", "drwt_no1", "drwt_no2", "drwt_no3", "drwt_no4",
	"drwt_no5", "drwt_no6", "bnus_no", "first_winamnt", "first_przwner_co"}

func newFeed(t *testing.T) (*Feed, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestListDraws(t *testing.T) {
	feed, mock := newFeed(t)
	date := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(drawCols).
		AddRow(1149, date, 8, 15, 19, 21, 32, 36, 38, 1_800_000_000, 15).
		AddRow(1148, date.AddDate(0, 0, -7), 3, 6, 13, 15, 16, 22, 32, nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM lotto_draws ORDER BY drw_no DESC").WillReturnRows(rows)

	draws, err := feed.ListDraws(context.Background())
	if err != nil {
		t.Fatalf("ListDraws failed: %v", err)
	}
	if len(draws) != 2 {
		t.Fatalf("expected 2 draws, got %d", len(draws))
	}
	first := draws[0]
	if first.DrawNumber != 1149 || first.Numbers != [6]int{8, 15, 19, 21, 32, 36} || first.Bonus != 38 {
		t.Errorf("unexpected first draw %+v", first)
	}
	if first.JackpotAmount == nil || *first.JackpotAmount != 1_800_000_000 || first.JackpotWinners != 15 {
		t.Errorf("jackpot not mapped: %+v", first)
	}
	if draws[1].JackpotAmount != nil || draws[1].JackpotWinners != 0 {
		t.Errorf("NULL jackpot columns should map to nil/zero: %+v", draws[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetDraw(t *testing.T) {
	feed, mock := newFeed(t)

	mock.ExpectQuery("SELECT (.+) FROM lotto_draws WHERE drw_no = \\$1").
		WithArgs(1100).
		WillReturnRows(sqlmock.NewRows(drawCols).AddRow(1100, time.Now(), 1, 2, 3, 4, 5, 6, 7, nil, 0))

	d, err := feed.GetDraw(context.Background(), 1100)
	if err != nil {
		t.Fatalf("GetDraw failed: %v", err)
	}
	if d.DrawNumber != 1100 {
		t.Errorf("DrawNumber = %d", d.DrawNumber)
	}

	mock.ExpectQuery("SELECT (.+) FROM lotto_draws WHERE drw_no").
		WithArgs(5).
		WillReturnError(sql.ErrNoRows)
	if _, err := feed.GetDraw(context.Background(), 5); err != repository.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLatestDraw_Empty(t *testing.T) {
	feed, mock := newFeed(t)
	mock.ExpectQuery("SELECT (.+) FROM lotto_draws ORDER BY drw_no DESC LIMIT 1").
		WillReturnRows(sqlmock.NewRows(drawCols))

	if _, err := feed.LatestDraw(context.Background()); err != repository.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMissingTableIsUnavailable(t *testing.T) {
	feed, mock := newFeed(t)
	mock.ExpectQuery("SELECT (.+) FROM lotto_draws").
		WillReturnError(&pq.Error{Code: pgUndefinedTable, Message: `relation "lotto_draws" does not exist`})

	_, err := feed.ListDraws(context.Background())
	if errors.KindOf(err) != errors.ErrUnavailable {
		t.Errorf("expected Unavailable kind, got %v", err)
	}
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		t.Error("driver error should stay in the chain")
	}
}

func TestOtherErrorsPassThrough(t *testing.T) {
	feed, mock := newFeed(t)
	boom := stderrors.New("connection reset")
	mock.ExpectQuery("SELECT (.+) FROM lotto_draws").WillReturnError(boom)

	_, err := feed.LatestDraw(context.Background())
	if !stderrors.Is(err, boom) {
		t.Errorf("expected raw error, got %v", err)
	}
}

func TestListDraws_ScanError(t *testing.T) {
	feed, mock := newFeed(t)
	mock.ExpectQuery("SELECT (.+) FROM lotto_draws").
		WillReturnRows(sqlmock.NewRows(drawCols).AddRow("x", time.Now(), 1, 2, 3, 4, 5, 6, 7, nil, nil))

	if _, err := feed.ListDraws(context.Background()); err == nil {
		t.Error("expected scan error")
	}
}
