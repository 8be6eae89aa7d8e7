package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hession/datamate/internal/store"
	"github.com/hession/datamate/internal/store/storetest"
)

func openTestStore(t *testing.T, sales []storetest.Sale) *store.SQLiteStore {
	t.Helper()
	path := storetest.Create(t, sales)
	s, err := store.NewSQLiteStore(context.Background(), path, store.Options{MaxOpenConns: 2})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.db")

	_, err := store.NewSQLiteStore(context.Background(), path, store.Options{})
	if !errors.Is(err, store.ErrDatabaseNotFound) {
		t.Fatalf("Expected ErrDatabaseNotFound, got %v", err)
	}

	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("Opening a missing dataset must not create it")
	}
}

func TestQuery_BoundParameters(t *testing.T) {
	s := openTestStore(t, storetest.DefaultSales)

	rows, err := s.Query(context.Background(),
		"SELECT Customer FROM "+store.TableName+" WHERE Region = ? ORDER BY rowid", "East")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	var got []string
	for _, r := range rows {
		got = append(got, store.Text(r[0]))
	}
	want := []string{"Alice", "Alice", "Erin"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Row %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestQuery_InjectionIsData(t *testing.T) {
	s := openTestStore(t, storetest.DefaultSales)

	rows, err := s.Query(context.Background(),
		"SELECT COUNT(*) FROM "+store.TableName+" WHERE Region = ?", "East' OR '1'='1")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	n, _ := store.Decimal(rows[0][0])
	if !n.IsZero() {
		t.Errorf("Bound value must not be interpreted as SQL, got count %s", n)
	}
}

func TestQuery_ErrorsAreDataUnavailable(t *testing.T) {
	s := openTestStore(t, storetest.DefaultSales)

	_, err := s.Query(context.Background(), "SELECT Missing FROM "+store.TableName)
	if !errors.Is(err, store.ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable for bad column, got %v", err)
	}

	_, err = s.Query(context.Background(), "DELETE FROM "+store.TableName)
	if !errors.Is(err, store.ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable for write on read-only store, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Query(ctx, "SELECT * FROM "+store.TableName)
	if !errors.Is(err, store.ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable for cancelled context, got %v", err)
	}
}

func TestQuery_AfterClose(t *testing.T) {
	path := storetest.Create(t, storetest.DefaultSales)
	s, err := store.NewSQLiteStore(context.Background(), path, store.Options{})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := s.Query(context.Background(), "SELECT 1"); !errors.Is(err, store.ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable after Close, got %v", err)
	}
}

func TestDecimalAndText(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   string
		wantOK bool
	}{
		{"int", int64(42), "42", true},
		{"float", 12.5, "12.5", true},
		{"string", "3.25", "3.25", true},
		{"bytes", []byte("7"), "7", true},
		{"nil", nil, "0", false},
		{"text", "abc", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := store.Decimal(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && d.String() != tt.want {
				t.Errorf("Decimal(%v) = %s, want %s", tt.in, d, tt.want)
			}
		})
	}

	if store.Text(nil) != "" || store.Text([]byte("x")) != "x" || store.Text(int64(3)) != "3" {
		t.Error("Text conversion mismatch")
	}
}
