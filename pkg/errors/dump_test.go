package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpPgxError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_combos_tenant_combo", TableName: "combos"}
	err := Wrap(CodeConflict, fmt.Errorf("insert combo: %w", pgErr), "combo exists")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "idx_combos_tenant_combo" || d.PGTable != "combos" {
		t.Fatalf("unexpected postgres fields %+v", d)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected three links in chain, got %v", d.Chain)
	}

	fields := d.Fields()
	if fields["pg_constraint"] != "idx_combos_tenant_combo" {
		t.Fatalf("expected constraint field, got %v", fields)
	}
	if _, ok := fields["pg_column"]; ok {
		t.Fatalf("empty postgres fields should be omitted: %v", fields)
	}
}

func TestDumpPqError(t *testing.T) {
	d := Dump(&pq.Error{Code: "42P01", Table: "price_books"})
	if d.PGCode != "42P01" || d.PGTable != "price_books" {
		t.Fatalf("unexpected postgres fields %+v", d)
	}
	if d.Code != CodeInternal || !d.Retryable {
		t.Fatalf("untyped errors should dump as retryable internal, got %+v", d)
	}
}

func TestDumpPlainError(t *testing.T) {
	if d := Dump(nil); d.Message != "" || d.Chain != nil {
		t.Fatalf("expected empty dump for nil, got %+v", d)
	}

	fields := Dump(stdErrors.New("plain")).Fields()
	if fields["error"] != "plain" || fields["error_code"] != string(CodeInternal) {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("did not expect postgres fields: %v", fields)
	}
}
