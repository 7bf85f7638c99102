package sqlstore

import "strings"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id {{id}},
		name TEXT NOT NULL,
		price {{money}} NOT NULL,
		discount_price {{money}},
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_variants (
		id {{id}},
		product_id {{ref}} NOT NULL REFERENCES products(id),
		size TEXT NOT NULL,
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		updated_at {{ts}} NOT NULL,
		UNIQUE (product_id, size)
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id {{id}},
		user_id {{ref}} NOT NULL,
		product_id {{ref}} NOT NULL REFERENCES products(id),
		size TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		created_at {{ts}} NOT NULL,
		UNIQUE (user_id, product_id, size)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id {{id}},
		user_id {{ref}} NOT NULL,
		total_amount {{money}} NOT NULL,
		payment_status TEXT NOT NULL DEFAULT 'Pending',
		order_status TEXT NOT NULL DEFAULT 'Pending',
		shipping_address TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id {{id}},
		order_id {{ref}} NOT NULL REFERENCES orders(id),
		product_id {{ref}} NOT NULL,
		product_name TEXT NOT NULL,
		size TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price {{money}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id {{id}},
		order_id {{ref}} NOT NULL UNIQUE REFERENCES orders(id),
		gateway_order_id TEXT NOT NULL,
		transaction_id TEXT NOT NULL DEFAULT '',
		signature TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT 'Pending',
		failure_reason TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
}

// sqlite keeps money as TEXT so decimals round-trip exactly.
var dialects = map[string]*strings.Replacer{
	DriverSQLite: strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}", "INTEGER",
		"{{money}}", "TEXT",
		"{{ts}}", "TIMESTAMP",
	),
	DriverPostgres: strings.NewReplacer(
		"{{id}}", "BIGSERIAL PRIMARY KEY",
		"{{ref}}", "BIGINT",
		"{{money}}", "NUMERIC(12,2)",
		"{{ts}}", "TIMESTAMPTZ",
	),
}

func schemaFor(driver string) []string {
	r, ok := dialects[driver]
	if !ok {
		r = dialects[DriverPostgres]
	}
	out := make([]string, len(schema))
	for i, stmt := range schema {
		out[i] = r.Replace(stmt)
	}
	return out
}
