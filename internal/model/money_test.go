package model_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.Money
		wantErr bool
	}{
		{name: "whole number", input: "150", want: 15000},
		{name: "two decimals", input: "150.25", want: 15025},
		{name: "one decimal", input: "9.5", want: 950},
		{name: "leading dot", input: ".75", want: 75},
		{name: "negative", input: "-3.10", want: -310},
		{name: "trailing zeros", input: "12.000", want: 1200},
		{name: "too precise", input: "1.005", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "lone dot", input: ".", wantErr: true},
		{name: "largest amount", input: "92233720368547758.07", want: math.MaxInt64},
		{name: "one cent too many", input: "92233720368547758.08", wantErr: true},
		{name: "overflow", input: "100000000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ParseMoney(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoney_JSON(t *testing.T) {
	var p struct {
		Amount model.Money `json:"amount_paid"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"amount_paid": 150}`), &p))
	assert.Equal(t, model.Money(15000), p.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount_paid": "42.50"}`), &p))
	assert.Equal(t, model.Money(4250), p.Amount)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount_paid": 42.50}`, string(out))
}

func TestValidationError_Is(t *testing.T) {
	err := error(model.NewValidationError("sessions_included", "must not be negative"))

	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.False(t, errors.Is(err, model.ErrClientNotFound))
	assert.Equal(t, "validation error: sessions_included must not be negative", err.Error())
}

func TestValidate_UsesWireNames(t *testing.T) {
	err := model.Validate(&model.Purchase{SessionsIncluded: -1, PackageType: "Intro Pack"})

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sessions_included", verr.Field)
}
