package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilesExist(t *testing.T) {
	migrationsDir := "../../migrations"

	// Check if migrations directory exists
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	// Expected migration files
	expectedMigrations := []string{
		"00001_create_brands_table.sql",
		"00002_create_categories_table.sql",
		"00003_create_products_table.sql",
		"00004_create_currency_rates_table.sql",
		"00005_create_b2b_discounts_table.sql",
		"00006_create_campaigns_table.sql",
		"00007_create_campaign_tiers_table.sql",
		"00008_create_addresses_table.sql",
		"00009_create_orders_table.sql",
		"00010_create_order_items_table.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	migrationsDir := "../../migrations"

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		// Check for goose Up directive
		if !strings.Contains(contentStr, "-- +goose Up") {
			t.Errorf("Migration file %s missing '-- +goose Up' directive", file.Name())
		}

		// Check for goose Down directive
		if !strings.Contains(contentStr, "-- +goose Down") {
			t.Errorf("Migration file %s missing '-- +goose Down' directive", file.Name())
		}

		// Check for StatementBegin/End
		if !strings.Contains(contentStr, "-- +goose StatementBegin") {
			t.Errorf("Migration file %s missing '-- +goose StatementBegin' directive", file.Name())
		}

		if !strings.Contains(contentStr, "-- +goose StatementEnd") {
			t.Errorf("Migration file %s missing '-- +goose StatementEnd' directive", file.Name())
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	migrationsDir := "../../migrations"

	expectedTables := map[string]string{
		"brands":         "00001_create_brands_table.sql",
		"categories":     "00002_create_categories_table.sql",
		"products":       "00003_create_products_table.sql",
		"currency_rates": "00004_create_currency_rates_table.sql",
		"b2b_discounts":  "00005_create_b2b_discounts_table.sql",
		"campaigns":      "00006_create_campaigns_table.sql",
		"campaign_tiers": "00007_create_campaign_tiers_table.sql",
		"addresses":      "00008_create_addresses_table.sql",
		"orders":         "00009_create_orders_table.sql",
		"order_items":    "00010_create_order_items_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		path := filepath.Join(migrationsDir, migrationFile)
		content, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", migrationFile, err)
			continue
		}

		contentStr := string(content)

		// Check if migration creates the table
		createTableStmt := "CREATE TABLE IF NOT EXISTS " + tableName
		if !strings.Contains(contentStr, createTableStmt) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}

		// Check if migration has drop table in down section
		dropTableStmt := "DROP TABLE IF EXISTS " + tableName
		if !strings.Contains(contentStr, dropTableStmt) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestDiscountScopeConstraintsPresent(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("../../migrations", "00005_create_b2b_discounts_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read discounts migration: %v", err)
	}

	contentStr := string(content)

	// One row per scope key is schema-enforced, not just service-enforced
	for _, index := range []string{
		"uniq_b2b_discounts_general",
		"uniq_b2b_discounts_brand",
		"uniq_b2b_discounts_category",
	} {
		if !strings.Contains(contentStr, index) {
			t.Errorf("discounts migration missing partial unique index %s", index)
		}
	}
}

func TestOrdersHaveUniqueCorrelationID(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("../../migrations", "00009_create_orders_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read orders migration: %v", err)
	}

	contentStr := string(content)
	if !strings.Contains(contentStr, "merchant_oid") {
		t.Error("orders migration missing merchant_oid column")
	}
	if !strings.Contains(contentStr, "UNIQUE") {
		t.Error("orders migration missing uniqueness constraints")
	}
}
