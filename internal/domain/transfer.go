package domain

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyAmount   = errors.New("amount is required")
	ErrInvalidAmount = errors.New("amount must be a positive number with at most two decimals")
)

// TransferRequest moves Amount from one account to another. It only lives for
// the duration of one submit.
type TransferRequest struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
}

type transferWire struct {
	FromAccount string      `json:"from_account"`
	ToAccount   string      `json:"to_account"`
	Amount      json.Number `json:"amount"`
}

// MarshalJSON writes the amount as a bare JSON number with two decimals so it
// never passes through a float.
func (r TransferRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(transferWire{
		FromAccount: r.FromAccount,
		ToAccount:   r.ToAccount,
		Amount:      json.Number(r.Amount.StringFixed(2)),
	})
}

// ParseAmount parses user input into a fixed-point amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() || !d.Equal(d.Truncate(2)) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
