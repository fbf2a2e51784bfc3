package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "USD", want: "USD"},
		{input: "usd", want: "USD"},
		{input: "  eUr ", want: "EUR"},
		{input: "US", wantErr: true},
		{input: "USDT", wantErr: true},
		{input: "U1D", wantErr: true},
		{input: "", wantErr: true},
		{input: "ÜSD", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeCode(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCurrencyCode)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
