package database

import (
	"fmt"
	"log"
	"strings"
)

// Tables du keyspace catalogue
var ProductsSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		category_id uuid PRIMARY KEY,
		name text,
		slug text
	)`,
	`CREATE TABLE IF NOT EXISTS categories_by_slug (
		slug text PRIMARY KEY,
		category_id uuid
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id uuid PRIMARY KEY,
		category_id uuid,
		name text,
		slug text,
		description text,
		cost_price bigint,
		price bigint,
		stock int,
		available boolean,
		is_online boolean,
		version bigint,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS products_by_category (
		category_id uuid,
		product_id uuid,
		PRIMARY KEY (category_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS product_price_history (
		product_id uuid,
		history_id timeuuid,
		cost_price bigint,
		selling_price bigint,
		changed_by text,
		changed_at timestamp,
		reason text,
		PRIMARY KEY (product_id, history_id)
	) WITH CLUSTERING ORDER BY (history_id DESC)`,
	`CREATE TABLE IF NOT EXISTS product_reviews (
		product_id uuid,
		user_id text,
		review_id uuid,
		rating int,
		title text,
		comment text,
		verified_purchase boolean,
		created_at timestamp,
		updated_at timestamp,
		PRIMARY KEY (product_id, user_id)
	)`,
}

// Tables du keyspace commandes
var OrdersSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id uuid PRIMARY KEY,
		user_id text,
		first_name text,
		last_name text,
		email text,
		address text,
		postal_code text,
		city text,
		paid boolean,
		payment_method text,
		payment_id text,
		status text,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id uuid,
		item_id timeuuid,
		product_id uuid,
		price bigint,
		quantity int,
		PRIMARY KEY (order_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders_by_user (
		user_id text,
		created_at timestamp,
		order_id uuid,
		PRIMARY KEY (user_id, created_at, order_id)
	) WITH CLUSTERING ORDER BY (created_at DESC, order_id ASC)`,
	`CREATE TABLE IF NOT EXISTS sales (
		sale_id timeuuid PRIMARY KEY,
		order_id uuid,
		sale_date timestamp,
		category_id uuid,
		product_id uuid,
		sold_price bigint,
		quantity int,
		reference text
	)`,
	`CREATE TABLE IF NOT EXISTS sales_by_order (
		order_id uuid,
		sale_id timeuuid,
		PRIMARY KEY (order_id, sale_id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_sales_claims (
		order_id uuid PRIMARY KEY,
		claimed_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS manual_sales_by_reference (
		reference text PRIMARY KEY,
		sale_id timeuuid
	)`,
}

// keyspaceDDL crée le keyspace en réplication simple (environnement de dev)
func keyspaceDDL(keyspace string) string {
	return fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, keyspace)
}

// migrate crée keyspaces et tables ; activé par SCYLLA_AUTO_MIGRATE=true
func (sm *ScyllaManager) migrate() error {
	for keyspace, cfg := range sm.configs {
		bootstrap := cfg
		bootstrap.Keyspace = ""
		cluster, err := createScyllaCluster(bootstrap)
		if err != nil {
			return err
		}
		session, err := cluster.CreateSession()
		if err != nil {
			return fmt.Errorf("session de migration: %w", err)
		}

		statements := []string{keyspaceDDL(keyspace)}
		tables := OrdersSchema
		if keyspace == sm.products {
			tables = ProductsSchema
		}
		for _, ddl := range tables {
			statements = append(statements, qualify(ddl, keyspace))
		}

		for _, stmt := range statements {
			if err := session.Query(stmt).Exec(); err != nil {
				session.Close()
				return fmt.Errorf("migration %s: %w", keyspace, err)
			}
		}
		session.Close()
		log.Printf("✅ Schéma ScyllaDB à jour pour '%s' (%d tables)", keyspace, len(tables))
	}
	return nil
}

// qualify préfixe le nom de table par le keyspace
func qualify(ddl, keyspace string) string {
	return strings.Replace(ddl, "IF NOT EXISTS ", "IF NOT EXISTS "+keyspace+".", 1)
}
