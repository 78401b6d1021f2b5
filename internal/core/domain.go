package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxNameLength bounds asset names accepted from the add form.
const MaxNameLength = 200

// Uncategorized is used when an asset is submitted without a category.
const Uncategorized = "Uncategorized"

type (
	// Asset is a single valuable tracked by a ledger. Value is the current
	// worth, Change the most recent signed movement of that worth.
	Asset struct {
		Name     string          `json:"name"`
		Category string          `json:"category"`
		Value    decimal.Decimal `json:"value"`
		Change   decimal.Decimal `json:"change"`
	}
)

var (
	// ErrValidation is the root of every error caused by bad user input.
	ErrValidation = errors.New("invalid asset")

	ErrEmptyName     = fmt.Errorf("%w: empty name", ErrValidation)
	ErrNameTooLong   = fmt.Errorf("%w: name too long (max %d characters)", ErrValidation, MaxNameLength)
	ErrNegativeValue = fmt.Errorf("%w: negative value", ErrValidation)
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)

	// ErrNotFound is returned when a removal target does not exist.
	ErrNotFound = errors.New("asset not found")
)

// Validate checks the entry rules of the ledger: a non-empty name and a
// non-negative value. Change may carry any sign.
func (a Asset) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if a.Value.IsNegative() {
		return ErrNegativeValue
	}
	return nil
}

// NewAsset builds an asset from float amounts. It is a convenience for
// literals such as the seed set; it does not validate.
func NewAsset(name, category string, value, change float64) Asset {
	return Asset{
		Name:     name,
		Category: category,
		Value:    decimal.NewFromFloat(value),
		Change:   decimal.NewFromFloat(change),
	}
}
