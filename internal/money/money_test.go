package money_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/spendly/internal/money"
)

func TestParseAmount(t *testing.T) {
	type testCase struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}

	tests := []testCase{
		{name: "Integer", input: "50", want: 5000},
		{name: "Dot decimal", input: "12.34", want: 1234},
		{name: "Comma decimal", input: "12,34", want: 1234},
		{name: "Thousands separator", input: "1,234.56", want: 123456},
		{name: "Surrounding spaces", input: "  7.5 ", want: 750},
		{name: "Rounds half up", input: "0.125", want: 13},
		{name: "Rounds down", input: "12.344", want: 1234},
		{name: "Empty", input: "", wantErr: true},
		{name: "Not a number", input: "abc", wantErr: true},
		{name: "Zero", input: "0", wantErr: true},
		{name: "Rounds to zero", input: "0.004", wantErr: true},
		{name: "Negative", input: "-5", wantErr: true},
		{name: "Overflow", input: "999999999999999999999", wantErr: true},
		{name: "At ceiling", input: "100000000000", want: money.MaxCents},
		{name: "Above ceiling", input: "100000000000.01", wantErr: true},
		{name: "Fits int64 but above ceiling", input: "50000000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.ParseAmount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, money.ErrInvalidAmount)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEuropeanAmount(t *testing.T) {
	tests := map[string]int64{
		"1.234,56": 123456,
		"-588,74":  -58874,
		"10,00":    1000,
		"0,00":     0,
	}

	for input, want := range tests {
		got, err := money.ParseEuropeanAmount(input)
		assert.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := money.ParseEuropeanAmount("n/a")
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.34", money.Format(1234))
	assert.Equal(t, "0.05", money.Format(5))
	assert.Equal(t, "-20.00", money.Format(-2000))
	assert.Equal(t, "0.00", money.Format(0))
}

func TestAdd(t *testing.T) {
	type args struct {
		a int64
		b int64
	}

	type testCase struct {
		name    string
		args    args
		want    int64
		wantErr bool
	}

	tests := []testCase{
		{name: "Small", args: args{a: 5000, b: 3000}, want: 8000},
		{name: "Negative", args: args{a: -2500, b: 1000}, want: -1500},
		{name: "UpToMax", args: args{a: math.MaxInt64 - 1, b: 1}, want: math.MaxInt64},
		{name: "PositiveOverflow", args: args{a: 5e18, b: 5e18}, wantErr: true},
		{name: "NegativeOverflow", args: args{a: math.MinInt64, b: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Add(tt.args.a, tt.args.b)
			if tt.wantErr {
				assert.ErrorIs(t, err, money.ErrInvalidAmount)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
