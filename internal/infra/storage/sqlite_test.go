package storage

import (
	"fmt"
	"testing"
	"time"

	"strategy_dash/internal/domain"

	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *History {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	h, err := NewHistory(dsn)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		h.Close()
	})
	return h
}

func alert(id int64, symbol string) domain.PriceAlert {
	return domain.PriceAlert{ID: id, Symbol: symbol, Operator: domain.OpAbove, Value: decimal.RequireFromString("101.25")}
}

func TestAppendAndRecent(t *testing.T) {
	h := setupTestDB(t)
	t0 := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	if err := h.Append(alert(1, "A"), t0); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := h.Append(alert(2, "B"), t0.Add(time.Minute)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := h.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Alert.ID != 2 {
		t.Errorf("newest first, got id %d", entries[0].Alert.ID)
	}
	if !entries[1].Alert.Value.Equal(decimal.RequireFromString("101.25")) {
		t.Errorf("value round trip = %s", entries[1].Alert.Value)
	}
	if !entries[1].Alert.Triggered {
		t.Error("history entries are triggered alerts")
	}
}

func TestRecentLimit(t *testing.T) {
	h := setupTestDB(t)
	now := time.Now()
	for i := 1; i <= 5; i++ {
		h.Append(alert(int64(i), "A"), now.Add(time.Duration(i)*time.Second))
	}

	entries, _ := h.Recent(3)
	if len(entries) != 3 || entries[0].Alert.ID != 5 {
		t.Errorf("Recent(3) = %+v", entries)
	}
}

func TestReplace(t *testing.T) {
	h := setupTestDB(t)
	now := time.Now()
	h.Append(alert(1, "A"), now)
	h.Append(alert(2, "A"), now)

	if err := h.Replace([]domain.PriceAlert{alert(7, "Z")}, now); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	n, _ := h.Count()
	if n != 1 {
		t.Errorf("expected 1 row after replace, got %d", n)
	}

	if err := h.Replace(nil, now); err != nil {
		t.Fatalf("Replace(nil) failed: %v", err)
	}
	if n, _ := h.Count(); n != 0 {
		t.Errorf("expected empty history, got %d", n)
	}
}

func TestForSymbol(t *testing.T) {
	h := setupTestDB(t)
	now := time.Now()
	h.Append(alert(1, "A"), now)
	h.Append(alert(2, "B"), now)
	h.Append(alert(3, "A"), now.Add(time.Second))

	entries, err := h.ForSymbol("A", 0)
	if err != nil {
		t.Fatalf("ForSymbol failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Alert.ID != 3 {
		t.Errorf("ForSymbol(A) = %+v", entries)
	}
}
