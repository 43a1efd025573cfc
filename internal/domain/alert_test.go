package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAlertOperator(t *testing.T) {
	tests := []struct {
		in      string
		want    AlertOperator
		wantErr bool
	}{
		{">", OpAbove, false},
		{"<", OpBelow, false},
		{" >= ", OpAboveOrEqual, false},
		{"<=", OpBelowOrEqual, false},
		{"==", "", true},
		{"", "", true},
		{"UP", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlertOperator(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAlertOperator(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOperator) {
				t.Errorf("expected ErrInvalidOperator, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAlertOperator(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewAlertRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req, err := NewAlertRequest(" NSE:SBIN-EQ ", ">=", decimal.NewFromFloat(812.5))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Symbol != "NSE:SBIN-EQ" {
			t.Errorf("Expected trimmed symbol, got %q", req.Symbol)
		}
		if req.Operator != OpAboveOrEqual {
			t.Errorf("Expected >=, got %s", req.Operator)
		}
		if req.ID != 0 {
			t.Errorf("Create request must not carry an id, got %d", req.ID)
		}
	})

	t.Run("empty symbol", func(t *testing.T) {
		if _, err := NewAlertRequest("  ", ">", decimal.NewFromInt(1)); !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("Expected ErrInvalidSymbol, got %v", err)
		}
	})

	t.Run("bad operator", func(t *testing.T) {
		if _, err := NewAlertRequest("X", "!=", decimal.NewFromInt(1)); !errors.Is(err, ErrInvalidOperator) {
			t.Errorf("Expected ErrInvalidOperator, got %v", err)
		}
	})
}

func TestPriceAlert_Describe(t *testing.T) {
	a := PriceAlert{ID: 7, Symbol: "NSE:SBIN-EQ", Operator: OpBelow, Value: decimal.RequireFromString("790.25")}
	if got := a.Describe(); got != "NSE:SBIN-EQ < 790.25" {
		t.Errorf("Describe() = %q", got)
	}
}
