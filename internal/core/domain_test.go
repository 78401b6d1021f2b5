package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAsset_Validate(t *testing.T) {
	tests := []struct {
		name    string
		asset   Asset
		wantErr error
	}{
		{
			name:  "valid asset",
			asset: NewAsset("Villa", "Real Estate", 100, 0),
		},
		{
			name:  "zero value is allowed",
			asset: NewAsset("Old Car", "Cars", 0, -100),
		},
		{
			name:  "free text category",
			asset: NewAsset("Stamp", "Philately", 10, 0),
		},
		{
			name:    "empty name",
			asset:   NewAsset("", "Cash", 100, 0),
			wantErr: ErrEmptyName,
		},
		{
			name:    "whitespace name",
			asset:   NewAsset("   ", "Cash", 100, 0),
			wantErr: ErrEmptyName,
		},
		{
			name:    "negative value",
			asset:   NewAsset("X", "Cash", -1, 0),
			wantErr: ErrNegativeValue,
		},
		{
			name:    "name too long",
			asset:   NewAsset(strings.Repeat("a", MaxNameLength+1), "Cash", 1, 0),
			wantErr: ErrNameTooLong,
		},
		{
			name:  "accented name at the limit counts characters",
			asset: NewAsset(strings.Repeat("é", MaxNameLength), "Art", 1, 0),
		},
		{
			name:    "accented name over the limit",
			asset:   NewAsset(strings.Repeat("é", MaxNameLength+1), "Art", 1, 0),
			wantErr: ErrNameTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestErrNotFound_IsNotValidation(t *testing.T) {
	assert.NotErrorIs(t, ErrNotFound, ErrValidation)
}

func TestSeedAssets(t *testing.T) {
	seed := SeedAssets()
	assert.Len(t, seed, 6)
	for _, a := range seed {
		assert.NoError(t, a.Validate(), a.Name)
	}
	assert.True(t, seed[0].Value.Equal(decimal.NewFromInt(500000)))
	assert.True(t, seed[1].Change.Equal(decimal.NewFromInt(-500)))

	// each call hands out an independent slice
	seed[0].Name = "changed"
	assert.Equal(t, "Villa in Tuscany", SeedAssets()[0].Name)
}

func TestSuggestCategories(t *testing.T) {
	t.Run("seed ledger", func(t *testing.T) {
		got := SuggestCategories(SeedAssets())
		assert.Equal(t, []string{"Real Estate", "Cars", "Watches", "Shares", "Wine", "Art", "Crypto", "Cash"}, got)
	})

	t.Run("custom categories come first", func(t *testing.T) {
		assets := []Asset{
			NewAsset("A", "Stamps", 1, 0),
			NewAsset("B", "Cash", 1, 0),
			NewAsset("C", "Stamps", 1, 0),
		}
		got := SuggestCategories(assets)
		assert.Equal(t, []string{"Stamps", "Cash", "Real Estate", "Cars", "Watches", "Shares", "Wine", "Art", "Crypto"}, got)
	})

	t.Run("empty ledger", func(t *testing.T) {
		assert.Equal(t, DefaultCategories, SuggestCategories(nil))
	})
}
