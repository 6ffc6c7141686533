package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// migration is one step of the ordered schema chain. Steps are additive or
// non-destructive; narrowing changes go through rebuild-and-copy. Each step
// runs in its own transaction together with the version bump, so a failure
// leaves the store at the pre-step version.
type migration struct {
	version int
	name    string
	stmts   []string
}

// TargetVersion returns the schema version this build creates.
func TargetVersion() int {
	return len(migrations)
}

// Migrate applies the chain from storedVersion+1 to TargetVersion.
// A store versioned ahead of this build refuses to open: downgrades are
// unrecoverable by design of the chain.
func (db *DB) Migrate() error {
	stored, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	target := TargetVersion()

	if stored > target {
		return fmt.Errorf("store schema v%d is newer than supported v%d: refusing to open", stored, target)
	}
	if stored == target {
		return nil
	}

	log.Printf("🔧 Migrating local store schema v%d -> v%d", stored, target)

	for _, m := range migrations[stored:] {
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, stmt := range m.stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("statement failed: %w", err)
				}
			}
			return tx.Exec(fmt.Sprintf("PRAGMA user_version = %d;", m.version)).Error
		})
		if err != nil {
			return fmt.Errorf("migration v%d (%s) failed: %w", m.version, m.name, err)
		}
	}

	return nil
}

// The chain below is append-only. Never edit an entry that has shipped:
// stores in the field carry its version number.
var migrations = []migration{
	{
		version: 1,
		name:    "reference tables",
		stmts: []string{
			`CREATE TABLE units (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				name TEXT NOT NULL DEFAULT '',
				last_synced_at DATETIME
			);`,
			`CREATE TABLE categories (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				name TEXT NOT NULL DEFAULT '',
				last_synced_at DATETIME
			);`,
			`CREATE TABLE brands (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				name TEXT NOT NULL DEFAULT '',
				last_synced_at DATETIME
			);`,
		},
	},
	{
		version: 2,
		name:    "sales routes",
		stmts: []string{
			`CREATE TABLE sales_routes (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				name TEXT NOT NULL DEFAULT '',
				area TEXT NOT NULL DEFAULT '',
				last_synced_at DATETIME
			);`,
		},
	},
	{
		version: 3,
		name:    "user accounts",
		stmts: []string{
			`CREATE TABLE user_accounts (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				name TEXT NOT NULL DEFAULT '',
				username TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL DEFAULT '',
				last_synced_at DATETIME
			);`,
			`CREATE INDEX idx_user_accounts_username ON user_accounts(username);`,
		},
	},
	{
		version: 4,
		name:    "products",
		stmts: []string{
			`CREATE TABLE products (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				name TEXT NOT NULL DEFAULT '',
				code TEXT NOT NULL DEFAULT '',
				unit_id INTEGER NOT NULL DEFAULT -1,
				category_id INTEGER NOT NULL DEFAULT -1,
				sale_price REAL NOT NULL DEFAULT 0,
				purchase_price REAL NOT NULL DEFAULT 0,
				last_synced_at DATETIME
			);`,
			`CREATE INDEX idx_products_name ON products(name);`,
			`CREATE INDEX idx_products_code ON products(code);`,
		},
	},
	{
		version: 5,
		name:    "customers",
		stmts: []string{
			`CREATE TABLE customers (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				name TEXT NOT NULL DEFAULT '',
				address TEXT NOT NULL DEFAULT '',
				phone_no TEXT NOT NULL DEFAULT '',
				route_id INTEGER NOT NULL DEFAULT -1,
				last_synced_at DATETIME
			);`,
			`CREATE INDEX idx_customers_name ON customers(name);`,
		},
	},
	{
		version: 6,
		name:    "orders and order lines",
		stmts: []string{
			`CREATE TABLE orders (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				order_number TEXT NOT NULL DEFAULT '',
				customer_id INTEGER NOT NULL DEFAULT -1,
				salesman_id INTEGER NOT NULL DEFAULT -1,
				order_date TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending',
				total_amount REAL NOT NULL DEFAULT 0,
				last_synced_at DATETIME
			);`,
			`CREATE INDEX idx_orders_order_number ON orders(order_number);`,
			`CREATE INDEX idx_orders_customer_id ON orders(customer_id);`,
			`CREATE INDEX idx_orders_status ON orders(status);`,
			`CREATE TABLE order_lines (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				order_id INTEGER NOT NULL DEFAULT -1,
				product_id INTEGER NOT NULL DEFAULT -1,
				qty REAL NOT NULL DEFAULT 0,
				unit_price REAL NOT NULL DEFAULT 0,
				last_synced_at DATETIME
			);`,
			`CREATE INDEX idx_order_lines_order_id ON order_lines(order_id);`,
			`CREATE INDEX idx_order_lines_product_id ON order_lines(product_id);`,
		},
	},
	{
		version: 7,
		name:    "sync watermarks",
		stmts: []string{
			`CREATE TABLE sync_watermarks (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				table_name TEXT NOT NULL UNIQUE,
				last_update TEXT NOT NULL DEFAULT '',
				updated_at DATETIME
			);`,
		},
	},
	{
		version: 8,
		name:    "out of stock masters",
		stmts: []string{
			`CREATE TABLE out_of_stock_masters (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				order_line_id INTEGER NOT NULL DEFAULT -1,
				product_id INTEGER NOT NULL DEFAULT -1,
				requested_qty REAL NOT NULL DEFAULT 0,
				status INTEGER NOT NULL DEFAULT 0,
				reported_by INTEGER NOT NULL DEFAULT -1,
				last_synced_at DATETIME
			);`,
			`CREATE INDEX idx_oos_masters_order_line_id ON out_of_stock_masters(order_line_id);`,
			`CREATE INDEX idx_oos_masters_status ON out_of_stock_masters(status);`,
		},
	},
	{
		version: 9,
		name:    "out of stock lines",
		stmts: []string{
			`CREATE TABLE out_of_stock_lines (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				server_id INTEGER NOT NULL DEFAULT -1,
				master_id INTEGER NOT NULL DEFAULT -1,
				status INTEGER NOT NULL DEFAULT 0,
				available_qty REAL NOT NULL DEFAULT 0,
				last_synced_at DATETIME
			);`,
			`CREATE INDEX idx_oos_lines_master_id ON out_of_stock_lines(master_id);`,
			`CREATE INDEX idx_oos_lines_status ON out_of_stock_lines(status);`,
		},
	},
	{
		version: 10,
		name:    "failed operations queue",
		stmts: []string{
			`CREATE TABLE failed_operations (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				table_id TEXT NOT NULL DEFAULT '',
				entity_id INTEGER NOT NULL DEFAULT -1,
				operation TEXT NOT NULL DEFAULT '',
				reason TEXT NOT NULL DEFAULT '',
				created_at DATETIME
			);`,
			`CREATE INDEX idx_failed_operations_table_id ON failed_operations(table_id);`,
			`CREATE INDEX idx_failed_operations_entity_id ON failed_operations(entity_id);`,
		},
	},
	{
		version: 11,
		name:    "product barcode and brand",
		stmts: []string{
			`ALTER TABLE products ADD COLUMN barcode TEXT NOT NULL DEFAULT '';`,
			`ALTER TABLE products ADD COLUMN brand_id INTEGER NOT NULL DEFAULT -1;`,
		},
	},
	{
		version: 12,
		name:    "customer email",
		stmts: []string{
			`ALTER TABLE customers ADD COLUMN email TEXT NOT NULL DEFAULT '';`,
		},
	},
	{
		version: 13,
		name:    "packing ledger",
		stmts: []string{
			`CREATE TABLE packing_entries (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				line_id INTEGER NOT NULL,
				packed_qty REAL NOT NULL DEFAULT 0,
				created_at DATETIME
			);`,
		},
	},
	{
		version: 14,
		name:    "shortage supplier assignment and viewed flag",
		stmts: []string{
			`ALTER TABLE out_of_stock_masters ADD COLUMN assigned_supplier_id INTEGER NOT NULL DEFAULT -1;`,
			`ALTER TABLE out_of_stock_masters ADD COLUMN is_viewed INTEGER NOT NULL DEFAULT 0;`,
		},
	},
	{
		version: 15,
		name:    "server key uniqueness",
		stmts: []string{
			// Partial: locally-created rows all carry -1 until their first upload.
			`CREATE UNIQUE INDEX idx_units_server_id ON units(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_categories_server_id ON categories(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_brands_server_id ON brands(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_sales_routes_server_id ON sales_routes(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_user_accounts_server_id ON user_accounts(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_products_server_id ON products(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_customers_server_id ON customers(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_orders_server_id ON orders(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_order_lines_server_id ON order_lines(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_oos_masters_server_id ON out_of_stock_masters(server_id) WHERE server_id != -1;`,
			`CREATE UNIQUE INDEX idx_oos_lines_server_id ON out_of_stock_lines(server_id) WHERE server_id != -1;`,
		},
	},
	{
		version: 16,
		name:    "shortage reported date",
		stmts: []string{
			`ALTER TABLE out_of_stock_masters ADD COLUMN reported_date TEXT NOT NULL DEFAULT '';`,
		},
	},
	{
		version: 17,
		name:    "customer balance and product stock",
		stmts: []string{
			`ALTER TABLE customers ADD COLUMN balance REAL NOT NULL DEFAULT 0;`,
			`ALTER TABLE products ADD COLUMN stock_qty REAL NOT NULL DEFAULT 0;`,
		},
	},
	{
		version: 18,
		name:    "failed operation payload snapshot",
		stmts: []string{
			`ALTER TABLE failed_operations ADD COLUMN payload TEXT;`,
		},
	},
	{
		version: 19,
		name:    "user contact details",
		stmts: []string{
			`ALTER TABLE user_accounts ADD COLUMN phone_no TEXT NOT NULL DEFAULT '';`,
			`ALTER TABLE user_accounts ADD COLUMN email TEXT NOT NULL DEFAULT '';`,
			`ALTER TABLE user_accounts ADD COLUMN route_id INTEGER NOT NULL DEFAULT -1;`,
		},
	},
	{
		version: 20,
		name:    "packing ledger uniqueness rebuild",
		stmts: []string{
			// Rebuild-and-copy: line_id gains its UNIQUE constraint and the
			// ledger a packed_by column. Duplicate rows from before the
			// constraint collapse to the latest entry.
			`CREATE TABLE packing_entries_new (
				local_id INTEGER PRIMARY KEY AUTOINCREMENT,
				line_id INTEGER NOT NULL UNIQUE,
				packed_qty REAL NOT NULL DEFAULT 0,
				packed_by INTEGER NOT NULL DEFAULT -1,
				created_at DATETIME
			);`,
			`INSERT INTO packing_entries_new (line_id, packed_qty, created_at)
				SELECT line_id, packed_qty, MAX(created_at) FROM packing_entries GROUP BY line_id;`,
			`DROP TABLE packing_entries;`,
			`ALTER TABLE packing_entries_new RENAME TO packing_entries;`,
		},
	},
	{
		version: 21,
		name:    "per-line supplier response fields",
		stmts: []string{
			`ALTER TABLE out_of_stock_lines ADD COLUMN assigned_supplier_id INTEGER NOT NULL DEFAULT -1;`,
			`ALTER TABLE out_of_stock_lines ADD COLUMN is_checked INTEGER NOT NULL DEFAULT 0;`,
			`ALTER TABLE order_lines ADD COLUMN available_qty REAL NOT NULL DEFAULT 0;`,
			`ALTER TABLE order_lines ADD COLUMN is_checked INTEGER NOT NULL DEFAULT 0;`,
		},
	},
	{
		version: 22,
		name:    "active flags",
		stmts: []string{
			`ALTER TABLE user_accounts ADD COLUMN is_active INTEGER NOT NULL DEFAULT 1;`,
			`ALTER TABLE products ADD COLUMN is_active INTEGER NOT NULL DEFAULT 1;`,
			`ALTER TABLE customers ADD COLUMN is_active INTEGER NOT NULL DEFAULT 1;`,
		},
	},
}
