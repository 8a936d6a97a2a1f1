package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(Migrations, "migrations/*_"+suffix+".sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := Migrations.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	return string(data)
}

func TestMigrationsCarryConstraints(t *testing.T) {
	cases := map[string][]string{
		"create_catalog": {
			"CONSTRAINT chk_product_variants_stock CHECK (stock_quantity >= 0)",
			"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
			"DROP TABLE IF EXISTS product_variants",
		},
		"create_carts": {
			"CHECK ((user_id IS NULL) <> (session_token_hash IS NULL))",
			"CHECK (quantity >= 1)",
			"ux_cart_lines_item ON cart_lines (cart_id, product_id, variant_id)",
		},
		"create_promotions": {
			"CHECK (usage_limit IS NULL OR usage_count <= usage_limit)",
			"ux_promotions_code",
		},
		"create_orders": {
			"final_amount_cents = total_amount_cents - discount_amount_cents + shipping_fee_cents",
			"REFERENCES orders(id) ON DELETE CASCADE",
			"ux_deliveries_order_id ON deliveries (order_id)",
			"ux_payments_order_id ON payments (order_id)",
			"ux_orders_source_cart",
		},
		"create_outbox": {
			"idx_outbox_events_unpublished",
			"ux_outbox_dlq_event_id",
		},
	}
	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing %q", suffix, sub)
			}
		}
	}
}

func TestValidateDir(t *testing.T) {
	if err := ValidateFS(Migrations, embeddedDir); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}

	dir := t.TempDir()
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected empty dir to fail")
	}
	bad := filepath.Join(dir, "001_bad.sql")
	if err := os.WriteFile(bad, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected bad filename to fail")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Order Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_order_notes.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	second, err := CreateSQLMigration(dir, "add order notes index")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if filepath.Base(second) <= filepath.Base(path) {
		t.Fatalf("second migration %s should sort after %s", second, path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migrations should validate: %v", err)
	}
}
