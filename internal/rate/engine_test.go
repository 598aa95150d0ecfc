package rate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/civic-billing/internal/domain"
	customError "github.com/segyhp/civic-billing/pkg/errors"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func defaultTable() domain.RateTable {
	return domain.RateTable{
		domain.ServiceElectricity:  domain.MeteredRate{FixedCharges: decimal.NewFromInt(50), UnitRate: decimal.NewFromInt(5)},
		domain.ServiceWater:        domain.MeteredRate{FixedCharges: decimal.NewFromInt(30), UnitRate: decimal.RequireFromString("0.02")},
		domain.ServiceGas:          domain.MeteredRate{FixedCharges: decimal.NewFromInt(40), UnitRate: decimal.NewFromInt(15)},
		domain.ServiceAirPollution: domain.FlatRate{BaseRate: decimal.NewFromInt(200)},
	}
}

func TestComputeAmount(t *testing.T) {
	tests := []struct {
		name          string
		serviceType   domain.ServiceType
		units         *decimal.Decimal
		schedule      domain.RateSchedule
		expected      string
		expectedUnits *decimal.Decimal
	}{
		{
			name:          "electricity fixed plus units",
			serviceType:   domain.ServiceElectricity,
			units:         dec("10"),
			schedule:      domain.MeteredRate{FixedCharges: decimal.NewFromInt(50), UnitRate: decimal.NewFromInt(5)},
			expected:      "100",
			expectedUnits: dec("10"),
		},
		{
			name:          "water with fractional unit rate",
			serviceType:   domain.ServiceWater,
			units:         dec("1234"),
			schedule:      domain.MeteredRate{FixedCharges: decimal.NewFromInt(30), UnitRate: decimal.RequireFromString("0.02")},
			expected:      "54.68",
			expectedUnits: dec("1234"),
		},
		{
			name:          "gas rounds half away from zero",
			serviceType:   domain.ServiceGas,
			units:         dec("0.333"),
			schedule:      domain.MeteredRate{FixedCharges: decimal.NewFromInt(40), UnitRate: decimal.RequireFromString("1.5")},
			expected:      "40.5", // 40 + 0.4995
			expectedUnits: dec("0.333"),
		},
		{
			name:          "zero units charges fixed only but records units",
			serviceType:   domain.ServiceElectricity,
			units:         dec("0"),
			schedule:      domain.MeteredRate{FixedCharges: decimal.NewFromInt(50), UnitRate: decimal.NewFromInt(5)},
			expected:      "50",
			expectedUnits: dec("0"),
		},
		{
			name:        "metered without units is fixed charge",
			serviceType: domain.ServiceGas,
			units:       nil,
			schedule:    domain.MeteredRate{FixedCharges: decimal.NewFromInt(40), UnitRate: decimal.NewFromInt(15)},
			expected:    "40",
		},
		{
			name:        "air pollution base rate",
			serviceType: domain.ServiceAirPollution,
			units:       nil,
			schedule:    domain.FlatRate{BaseRate: decimal.NewFromInt(200)},
			expected:    "200",
		},
		{
			name:        "air pollution override amount",
			serviceType: domain.ServiceAirPollution,
			units:       dec("350"),
			schedule:    domain.FlatRate{BaseRate: decimal.NewFromInt(200)},
			expected:    "350",
		},
		{
			name:        "flat schedule on a metered service",
			serviceType: domain.ServiceElectricity,
			units:       nil,
			schedule:    domain.FlatRate{BaseRate: decimal.RequireFromString("99.999")},
			expected:    "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := ComputeAmount(tt.serviceType, tt.units, tt.schedule)
			require.NoError(t, err)

			assert.True(t, quote.Amount.Equal(decimal.RequireFromString(tt.expected)),
				"Expected %v, but got %v", tt.expected, quote.Amount)

			if tt.expectedUnits == nil {
				assert.Nil(t, quote.UnitsConsumed)
			} else {
				require.NotNil(t, quote.UnitsConsumed)
				assert.True(t, quote.UnitsConsumed.Equal(*tt.expectedUnits))
			}
		})
	}
}

func TestComputeAmount_Deterministic(t *testing.T) {
	schedule := domain.MeteredRate{FixedCharges: decimal.NewFromInt(30), UnitRate: decimal.RequireFromString("0.02")}

	first, err := ComputeAmount(domain.ServiceWater, dec("987.65"), schedule)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := ComputeAmount(domain.ServiceWater, dec("987.65"), schedule)
		require.NoError(t, err)
		assert.True(t, first.Amount.Equal(again.Amount))
	}
}

func TestComputeAmount_Errors(t *testing.T) {
	tests := []struct {
		name        string
		serviceType domain.ServiceType
		units       *decimal.Decimal
		schedule    domain.RateSchedule
		expected    error
		code        string
	}{
		{
			name:        "negative units metered",
			serviceType: domain.ServiceElectricity,
			units:       dec("-5"),
			schedule:    domain.MeteredRate{FixedCharges: decimal.NewFromInt(50), UnitRate: decimal.NewFromInt(5)},
			expected:    customError.ErrNegativeUnits,
			code:        customError.ErrCodeValidation,
		},
		{
			name:        "negative units flat",
			serviceType: domain.ServiceAirPollution,
			units:       dec("-5"),
			schedule:    domain.FlatRate{BaseRate: decimal.NewFromInt(200)},
			expected:    customError.ErrNegativeUnits,
			code:        customError.ErrCodeValidation,
		},
		{
			name:        "missing schedule",
			serviceType: domain.ServiceGas,
			schedule:    nil,
			expected:    customError.ErrRateNotConfigured,
			code:        customError.ErrCodeRateNotConfigured,
		},
		{
			name:        "unknown service",
			serviceType: domain.ServiceType("sanitation"),
			schedule:    domain.FlatRate{BaseRate: decimal.NewFromInt(1)},
			expected:    customError.ErrValidation,
			code:        customError.ErrCodeValidation,
		},
		{
			name:        "negative rate",
			serviceType: domain.ServiceWater,
			units:       dec("1"),
			schedule:    domain.MeteredRate{FixedCharges: decimal.NewFromInt(-1), UnitRate: decimal.NewFromInt(1)},
			expected:    customError.ErrValidation,
			code:        customError.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeAmount(tt.serviceType, tt.units, tt.schedule)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
			assert.True(t, errors.Is(err, customError.ErrValidation))
			assert.Equal(t, tt.code, customError.CodeOf(err))
		})
	}
}

func TestEngine_Resolve(t *testing.T) {
	engine := NewEngine(defaultTable())

	t.Run("default schedule", func(t *testing.T) {
		schedule, err := engine.Resolve(domain.ServiceWater, domain.RateOverride{})
		require.NoError(t, err)
		assert.Equal(t, defaultTable()[domain.ServiceWater], schedule)
	})

	t.Run("base rate forces flat", func(t *testing.T) {
		schedule, err := engine.Resolve(domain.ServiceElectricity, domain.RateOverride{BaseRate: dec("75")})
		require.NoError(t, err)
		assert.Equal(t, domain.RateKindFlat, schedule.Kind())
		assert.True(t, schedule.(domain.FlatRate).BaseRate.Equal(decimal.NewFromInt(75)))
	})

	t.Run("partial metered override keeps default parts", func(t *testing.T) {
		schedule, err := engine.Resolve(domain.ServiceElectricity, domain.RateOverride{UnitRate: dec("6")})
		require.NoError(t, err)
		metered := schedule.(domain.MeteredRate)
		assert.True(t, metered.UnitRate.Equal(decimal.NewFromInt(6)))
		assert.True(t, metered.FixedCharges.Equal(decimal.NewFromInt(50)))
	})

	t.Run("missing rate is a configuration error", func(t *testing.T) {
		sparse := NewEngine(domain.RateTable{domain.ServiceWater: defaultTable()[domain.ServiceWater]})
		_, err := sparse.Resolve(domain.ServiceGas, domain.RateOverride{})
		assert.True(t, errors.Is(err, customError.ErrRateNotConfigured))
	})

	t.Run("full override prices an unconfigured service", func(t *testing.T) {
		sparse := NewEngine(domain.RateTable{})
		quote, err := sparse.Quote(domain.ServiceGas, dec("10"), domain.RateOverride{FixedCharges: dec("12.5"), UnitRate: dec("2")})
		require.NoError(t, err)
		assert.True(t, quote.Amount.Equal(decimal.RequireFromString("32.5")), "got %s", quote.Amount)
	})

	t.Run("negative override rejected", func(t *testing.T) {
		_, err := engine.Resolve(domain.ServiceGas, domain.RateOverride{UnitRate: dec("-1")})
		assert.True(t, errors.Is(err, customError.ErrValidation))
	})
}

func TestEngine_TableIsCopied(t *testing.T) {
	table := defaultTable()
	engine := NewEngine(table)

	delete(table, domain.ServiceGas)
	_, err := engine.Schedule(domain.ServiceGas)
	assert.NoError(t, err)

	view := engine.Table()
	delete(view, domain.ServiceWater)
	_, err = engine.Schedule(domain.ServiceWater)
	assert.NoError(t, err)
}

func TestEngine_QuoteRejectsIncompleteOverrides(t *testing.T) {
	sparse := domain.RateTable{domain.ServiceAirPollution: domain.FlatRate{BaseRate: decimal.NewFromInt(200)}}

	tests := []struct {
		name        string
		serviceType domain.ServiceType
		units       *decimal.Decimal
		override    domain.RateOverride
		expected    error
		code        string
	}{
		{
			name:        "fixed charges only on unconfigured service",
			serviceType: domain.ServiceGas,
			units:       dec("100"),
			override:    domain.RateOverride{FixedCharges: dec("12.5")},
			expected:    customError.ErrRateNotConfigured,
			code:        customError.ErrCodeRateNotConfigured,
		},
		{
			name:        "unit rate only on unconfigured service",
			serviceType: domain.ServiceWater,
			units:       dec("100"),
			override:    domain.RateOverride{UnitRate: dec("0.5")},
			expected:    customError.ErrRateNotConfigured,
			code:        customError.ErrCodeRateNotConfigured,
		},
		{
			name:        "unit rate on flat priced service",
			serviceType: domain.ServiceAirPollution,
			override:    domain.RateOverride{UnitRate: dec("5")},
			expected:    customError.ErrValidation,
			code:        customError.ErrCodeValidation,
		},
		{
			name:        "fixed charges on flat priced service",
			serviceType: domain.ServiceAirPollution,
			units:       dec("3"),
			override:    domain.RateOverride{FixedCharges: dec("10")},
			expected:    customError.ErrValidation,
			code:        customError.ErrCodeValidation,
		},
	}

	engine := NewEngine(sparse)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := engine.Quote(tt.serviceType, tt.units, tt.override)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
			assert.Equal(t, tt.code, customError.CodeOf(err))
			assert.True(t, quote.Amount.IsZero())
		})
	}
}
