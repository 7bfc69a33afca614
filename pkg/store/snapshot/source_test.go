package snapshot

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/de-tools/sync-sentinel/pkg/models/domain"
)

func TestSourceStore_FetchSource_ShouldReturnRowCount(t *testing.T) {
	// Given: a sqlmock DB answering the count query
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM hr.employees")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(107))

	store, err := NewSourceStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	asOf := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return asOf }

	// When
	snap, err := store.FetchSource(context.Background(), domain.Table{Name: "hr.employees"})

	// Then
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if snap.RowCount != 107 {
		t.Errorf("expected row count 107, got %d", snap.RowCount)
	}
	if !snap.AsOf.Equal(asOf) {
		t.Errorf("expected as-of %v, got %v", asOf, snap.AsOf)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSourceStore_FetchSource_ShouldClassifyErrors(t *testing.T) {
	tests := []struct {
		name    string
		driver  error
		wantErr error
	}{
		{
			name:    "unknown table via oracle code",
			driver:  errors.New("ORA-00942: table or view does not exist"),
			wantErr: domain.ErrTableNotFound,
		},
		{
			name:    "unknown table via mysql message",
			driver:  errors.New("Error 1146: Table 'hr.employees' doesn't exist"),
			wantErr: domain.ErrTableNotFound,
		},
		{
			name:    "connection failure is retryable",
			driver:  errors.New("driver: bad connection"),
			wantErr: domain.ErrSnapshotUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to open sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM hr.employees")).
				WillReturnError(tt.driver)

			store, err := NewSourceStore(db)
			if err != nil {
				t.Fatalf("failed to create store: %v", err)
			}

			_, err = store.FetchSource(context.Background(), domain.Table{Name: "hr.employees"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewSourceStore_NilDB(t *testing.T) {
	if _, err := NewSourceStore(nil); err == nil {
		t.Fatal("expected an error for a nil DB")
	}
}
