package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AlertOperator is the comparison a server-side price alert evaluates.
type AlertOperator string

const (
	OpAbove        AlertOperator = ">"
	OpBelow        AlertOperator = "<"
	OpAboveOrEqual AlertOperator = ">="
	OpBelowOrEqual AlertOperator = "<="
)

// ParseAlertOperator validates an operator string.
func ParseAlertOperator(s string) (AlertOperator, error) {
	switch op := AlertOperator(strings.TrimSpace(s)); op {
	case OpAbove, OpBelow, OpAboveOrEqual, OpBelowOrEqual:
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOperator, s)
}

// PriceAlert is the local cache of a server-owned alert.
// The server assigns ID and sets Triggered; the client never flips either.
type PriceAlert struct {
	ID        int64           `json:"id"`
	Symbol    string          `json:"symbol"`
	Operator  AlertOperator   `json:"operator"`
	Value     decimal.Decimal `json:"value"`
	Triggered bool            `json:"triggered"`
}

// AlertRequest is the payload of a create/update alert command.
type AlertRequest struct {
	ID       int64           `json:"id,omitempty"`
	Symbol   string          `json:"symbol"`
	Operator AlertOperator   `json:"operator"`
	Value    decimal.Decimal `json:"value"`
}

// NewAlertRequest builds a create request, rejecting empty symbols and unknown operators.
func NewAlertRequest(symbol, operator string, value decimal.Decimal) (AlertRequest, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return AlertRequest{}, ErrInvalidSymbol
	}
	op, err := ParseAlertOperator(operator)
	if err != nil {
		return AlertRequest{}, err
	}
	return AlertRequest{Symbol: symbol, Operator: op, Value: value}, nil
}

// Describe renders the alert condition, e.g. "NSE:SBIN-EQ >= 812.5".
func (a PriceAlert) Describe() string {
	return a.Symbol + " " + string(a.Operator) + " " + a.Value.String()
}
