package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFinalScore(t *testing.T) {
	rules := DefaultScoreRules()

	tests := []struct {
		name    string
		a, b    int
		wantErr error
	}{
		{name: "regulation win", a: 21, b: 19, wantErr: nil},
		{name: "regulation win reversed", a: 19, b: 21, wantErr: nil},
		{name: "below end points", a: 20, b: 18, wantErr: ErrScoreNotTerminal},
		{name: "at end points without margin", a: 21, b: 20, wantErr: ErrScoreNotTerminal},
		{name: "extended with margin", a: 23, b: 21, wantErr: nil},
		{name: "cap reached overrides margin", a: 25, b: 24, wantErr: nil},
		{name: "past the cap", a: 30, b: 28, wantErr: nil},
		{name: "tie is never terminal", a: 21, b: 21, wantErr: ErrTiedScore},
		{name: "tie past the cap", a: 25, b: 25, wantErr: ErrTiedScore},
		{name: "zero zero", a: 0, b: 0, wantErr: ErrTiedScore},
		{name: "negative score", a: -1, b: 21, wantErr: ErrInvalidScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFinalScore(tt.a, tt.b, rules)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFinalScoreWithoutWinByTwo(t *testing.T) {
	rules := ScoreRules{EndPoints: 15, WinByTwo: false, Cap: 17}

	assert.NoError(t, ValidateFinalScore(15, 14, rules))
	assert.ErrorIs(t, ValidateFinalScore(14, 13, rules), ErrScoreNotTerminal)
}
