// Package storetest builds throwaway sales datasets for tests.
package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// Sale one fixture row of the sales_data table
type Sale struct {
	Customer string
	Product  string
	Region   string
	Price    float64
	Total    float64
}

// DefaultSales is a small dataset with repeated customers and products
var DefaultSales = []Sale{
	{"Alice", "Widget", "East", 10, 100},
	{"Bob", "Gadget", "West", 25.5, 51},
	{"Alice", "Gizmo", "East", 4, 40},
	{"Carol", "Gadget", "North", 25.5, 255},
	{"Dave", "Widget", "West", 10, 30},
	{"Erin", "Doohickey", "East", 1234.5, 1234.5},
}

// Create writes sales into a new SQLite file and returns its path.
// The database is created read-write here; the store under test reopens it read-only.
func Create(t testing.TB, sales []Sale) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sales_data.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE sales_data (
		Customer TEXT,
		Product TEXT,
		Region TEXT,
		Price REAL,
		Total REAL
	)`)
	if err != nil {
		t.Fatalf("failed to create fixture table: %v", err)
	}

	for _, s := range sales {
		_, err := db.Exec(
			"INSERT INTO sales_data (Customer, Product, Region, Price, Total) VALUES (?, ?, ?, ?, ?)",
			s.Customer, s.Product, s.Region, s.Price, s.Total,
		)
		if err != nil {
			t.Fatalf("failed to insert fixture row: %v", err)
		}
	}

	return path
}

// CreateWithSchema creates an empty database from raw DDL, for datasets that
// do not match the usual columns.
func CreateWithSchema(t testing.TB, ddl ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "custom.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	defer db.Close()

	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to run fixture DDL %q: %v", stmt, err)
		}
	}
	return path
}
