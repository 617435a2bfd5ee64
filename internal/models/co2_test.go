package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRawMeasurement_ToRecord tests the conversion from a parsed row to a clean record
func TestRawMeasurement_ToRecord(t *testing.T) {
	tests := []struct {
		name        string
		raw         RawMeasurement
		wantErr     bool
		wantField   string
		checkValues func(*testing.T, *CO2Record)
	}{
		{
			name: "valid row with all columns",
			raw: RawMeasurement{
				Year: 1958, Month: 3, CO2: 315.71, CO2Adjusted: 314.44, CO2Fit: 316.19,
			},
			checkValues: func(t *testing.T, rec *CO2Record) {
				assert.Equal(t, time.Date(1958, 3, 1, 0, 0, 0, 0, time.UTC), rec.Date)
				assert.Equal(t, 1958, rec.Year)
				assert.Equal(t, 3, rec.Month)
				assert.Equal(t, 315.71, rec.CO2)
				assert.Equal(t, NullFloat(314.44), rec.CO2Adjusted)
				assert.Equal(t, NullFloat(316.19), rec.CO2Fit)
			},
		},
		{
			name: "optional columns undefined",
			raw:  RawMeasurement{Year: 2020, Month: 12, CO2: 414.2, CO2Adjusted: Undefined(), CO2Fit: Undefined()},
			checkValues: func(t *testing.T, rec *CO2Record) {
				assert.False(t, rec.CO2Adjusted.Valid())
				assert.False(t, rec.CO2Fit.Valid())
			},
		},
		{
			name:      "missing co2",
			raw:       RawMeasurement{Year: 1958, Month: 2, CO2: Undefined()},
			wantErr:   true,
			wantField: "co2",
		},
		{
			name:      "fractional year",
			raw:       RawMeasurement{Year: 1958.5, Month: 2, CO2: 315},
			wantErr:   true,
			wantField: "year",
		},
		{
			name:      "month out of range",
			raw:       RawMeasurement{Year: 1958, Month: 13, CO2: 315},
			wantErr:   true,
			wantField: "month",
		},
		{
			name:      "month zero",
			raw:       RawMeasurement{Year: 1958, Month: 0, CO2: 315},
			wantErr:   true,
			wantField: "month",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := tt.raw.ToRecord()
			if tt.wantErr {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.wantField, verr.Field)
				assert.Nil(t, rec)
				return
			}
			require.NoError(t, err)
			tt.checkValues(t, rec)
		})
	}
}

func TestNullFloat(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(struct {
			A NullFloat `json:"a"`
			B NullFloat `json:"b"`
		}{A: 1.5, B: Undefined()})
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))

		var back struct {
			B NullFloat `json:"b"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"b":null}`), &back))
		assert.False(t, back.B.Valid())
	})

	t.Run("sql", func(t *testing.T) {
		v, err := Undefined().Value()
		require.NoError(t, err)
		assert.Nil(t, v)

		var f NullFloat
		require.NoError(t, f.Scan([]byte("412.5")))
		assert.Equal(t, 412.5, f.Float64())
		require.NoError(t, f.Scan(nil))
		assert.True(t, math.IsNaN(f.Float64()))
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "", Undefined().String())
		assert.Equal(t, "2.25", NullFloat(2.25).String())
	})
}

func TestDecadeOf(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{1958, 1950},
		{1960, 1960},
		{2024, 2020},
		{-5, -10},
		{-10, -10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecadeOf(tt.year), "year %d", tt.year)
	}
}

func TestErrors(t *testing.T) {
	netErr := &NetworkError{URL: "http://example.invalid/x.csv", StatusCode: 404}
	assert.Contains(t, netErr.Error(), "404")
	assert.False(t, netErr.IsTransient())
	assert.True(t, (&NetworkError{URL: "u", Err: errors.New("refused")}).IsTransient())

	schemaErr := &SchemaError{Path: "a.csv", Missing: []string{"co2"}, Columns: []string{"yr", "mn"}}
	assert.Contains(t, schemaErr.Error(), "missing co2")
	assert.False(t, schemaErr.IsTransient())

	insufficient := &InsufficientDataError{Operation: "decomposition", Required: 24, Got: 5}
	assert.Equal(t, "decomposition requires at least 24 observations, got 5", insufficient.Error())

	validation := &ValidationError{Field: "month", Value: "13", Message: "bad month"}
	assert.Equal(t, "bad month", validation.Error())
	assert.False(t, validation.IsTransient())
}
