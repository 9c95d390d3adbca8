package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/warunglabs/kasirpos-backend/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestTransactionsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_transactions_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS transactions",
		"CREATE TABLE IF NOT EXISTS held_orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_code",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_idempotency_key",
		"points_redeemed BIGINT NOT NULL DEFAULT 0",
		"points_earned BIGINT NOT NULL DEFAULT 0",
		"status TEXT NOT NULL DEFAULT 'completed'",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInventoryMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_inventory_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS warehouses",
		"CREATE TABLE IF NOT EXISTS product_stocks",
		"CREATE TABLE IF NOT EXISTS inventory_logs",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_product_warehouse",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_warehouses_owner_primary",
		"quantity NUMERIC NOT NULL DEFAULT 0",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationKeepsPointsNonNegative(t *testing.T) {
	content := readMigration(t, "*_create_catalog_tables.sql")
	if !strings.Contains(content, "CHECK (points >= 0)") {
		t.Error("customers table must reject negative point balances")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
