package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"datetime with seconds", "2024-01-05 08:07:09", "2024-01-05", false},
		{"plain ISO date", "2024-01-05", "2024-01-05", false},
		{"European dotted", "05.01.2024", "2024-01-05", false},
		{"European slashed", "05/01/2024", "2024-01-05", false},
		{"surrounding whitespace", "  2024-01-05  ", "2024-01-05", false},
		{"empty", "", "", true},
		{"garbage", "not a date", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"plain negative", "-1490", "-1490", false},
		{"decimal point", "-57.50", "-57.5", false},
		{"comma decimal separator", "-57,50", "-57.5", false},
		{"comma thousands separator", "1,490.25", "1490.25", false},
		{"spaces", " 12 ", "12", false},
		{"not a number", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestTransactionKey(t *testing.T) {
	a := Transaction{Date: "2024-01-05", Description: "Spotify", Balance: decimal.NewFromInt(50000)}
	b := Transaction{Date: "2024-01-05", Description: "Spotify", Balance: decimal.NewFromInt(50000), Category: "Music", Hide: true}
	c := Transaction{Date: "2024-01-05", Description: "Spotify", Balance: decimal.NewFromInt(48510)}

	// Category and Hide are user edits, not identity.
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}
