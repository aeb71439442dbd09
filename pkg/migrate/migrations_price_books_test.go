package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPriceBooksMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_price_books.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS price_books",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_price_books_tenant_country_carrier",
		"ON price_books (tenant_id, country_code, carrier_key)",
		"CREATE TABLE IF NOT EXISTS shipping_tiers",
		"FOREIGN KEY (price_book_id) REFERENCES price_books(id) ON DELETE CASCADE",
		"CHECK (min_items >= 1)",
		"CHECK (max_items >= min_items)",
		"CHECK (shipping_cost >= 0)",
		"CREATE TABLE IF NOT EXISTS variant_cost_overrides",
		"DROP TABLE IF EXISTS price_books",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCombosMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_combos.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS combos",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_combos_tenant_combo",
		"CHECK (discount_type IS NULL OR discount_type IN ('percent', 'fixed'))",
		"CHECK (trigger_quantity >= 1)",
		"CREATE TABLE IF NOT EXISTS combo_items",
		"FOREIGN KEY (combo_row_id) REFERENCES combos(id) ON DELETE CASCADE",
		"CREATE TABLE IF NOT EXISTS combo_overrides",
		"DROP TABLE IF EXISTS combos",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsIndexes(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_tenant_external",
		"CREATE INDEX IF NOT EXISTS idx_orders_tenant_processed_at",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (quantity >= 1)",
		"DROP TABLE IF EXISTS order_lines",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file found for %s", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
