package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/pkg/config"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(config.DBConfig{Driver: config.DBDriverSQLite, DSN: "file::memory:"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "sqlite" {
		t.Fatalf("expected sqlite dialector, got %q", d.Name())
	}

	d, err = dialectorFor(config.DBConfig{DSN: "postgres://localhost/cogsdesk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "postgres" {
		t.Fatalf("expected postgres dialector, got %q", d.Name())
	}

	if _, err := dialectorFor(config.DBConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "postgres code", err: &pgconn.PgError{Code: "23505", ConstraintName: "idx_combos_tenant_combo"}, constraint: "idx_combos_tenant_combo", want: true},
		{name: "postgres other constraint", err: &pgconn.PgError{Code: "23505", ConstraintName: "other"}, constraint: "idx_combos_tenant_combo", want: false},
		{name: "postgres not unique", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "lib/pq code", err: &pq.Error{Code: "23505", Constraint: "idx_price_books_tenant_country_carrier"}, constraint: "idx_price_books_tenant_country_carrier", want: true},
		{name: "sqlite message", err: errors.New("UNIQUE constraint failed: combos.tenant_id, combos.combo_id"), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	cases := map[string]string{
		"file:cogsdesk.db?cache=shared": "file:cogsdesk.db?cache=shared&_foreign_keys=1",
		"file::memory:":                 "file::memory:?_foreign_keys=1",
		"file:x.db?_foreign_keys=0":     "file:x.db?_foreign_keys=0",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Fatalf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGormLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	buf := &bytes.Buffer{}
	gl := newGormLogger(logger.New(logger.Options{Format: logger.FormatJSON, Output: buf}), 50*time.Millisecond)
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT * FROM price_books", 0 }

	gl.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	gl.Trace(ctx, time.Now(), query, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected fast and not-found queries to stay quiet, got %s", buf.String())
	}

	gl.Trace(ctx, time.Now(), query, errors.New("relation does not exist"))
	if !strings.Contains(buf.String(), "db.query_failed") {
		t.Fatalf("expected failed query log, got %s", buf.String())
	}

	buf.Reset()
	gl.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	if !strings.Contains(buf.String(), "db.slow_query") || !strings.Contains(buf.String(), "price_books") {
		t.Fatalf("expected slow query log, got %s", buf.String())
	}
}
