package rate

import (
	"github.com/shopspring/decimal"

	"github.com/segyhp/civic-billing/internal/domain"
	customError "github.com/segyhp/civic-billing/pkg/errors"
	"github.com/segyhp/civic-billing/pkg/utils"
)

// Quote is the outcome of pricing one bill.
type Quote struct {
	Amount decimal.Decimal
	// UnitsConsumed is what the bill records; nil for flat priced bills.
	UnitsConsumed *decimal.Decimal
}

// Engine prices bills against a fixed rate table. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	table domain.RateTable
}

func NewEngine(table domain.RateTable) *Engine {
	copied := make(domain.RateTable, len(table))
	for k, v := range table {
		copied[k] = v
	}
	return &Engine{table: copied}
}

// Table returns a copy of the configured default schedules.
func (e *Engine) Table() domain.RateTable {
	copied := make(domain.RateTable, len(e.table))
	for k, v := range e.table {
		copied[k] = v
	}
	return copied
}

// Schedule returns the default schedule for serviceType.
func (e *Engine) Schedule(serviceType domain.ServiceType) (domain.RateSchedule, error) {
	if err := serviceType.Validate(); err != nil {
		return nil, err
	}

	schedule, ok := e.table[serviceType]
	if !ok || schedule == nil {
		return nil, customError.WrapRateNotConfigured(serviceType.String())
	}

	return schedule, nil
}

// Resolve merges an override into the service's default schedule. Explicit
// override values always win and a base rate forces flat pricing. A metered
// override fills its missing half from a metered default only; it is rejected
// on a flat priced service and on one with no schedule.
func (e *Engine) Resolve(serviceType domain.ServiceType, override domain.RateOverride) (domain.RateSchedule, error) {
	if err := serviceType.Validate(); err != nil {
		return nil, err
	}

	var schedule domain.RateSchedule

	switch {
	case override.BaseRate != nil:
		schedule = domain.FlatRate{BaseRate: *override.BaseRate}

	case override.UnitRate != nil || override.FixedCharges != nil:
		var metered domain.MeteredRate
		switch def := e.table[serviceType].(type) {
		case domain.MeteredRate:
			metered = def
		case domain.FlatRate:
			return nil, customError.WrapValidation("%s is flat priced; override base_rate instead of unit_rate or fixed_charges", serviceType)
		default:
			// Partial overrides need a default to fill the other half.
			if override.UnitRate == nil || override.FixedCharges == nil {
				return nil, customError.WrapRateNotConfigured(serviceType.String())
			}
		}
		if override.UnitRate != nil {
			metered.UnitRate = *override.UnitRate
		}
		if override.FixedCharges != nil {
			metered.FixedCharges = *override.FixedCharges
		}
		schedule = metered

	default:
		def, err := e.Schedule(serviceType)
		if err != nil {
			return nil, err
		}
		schedule = def
	}

	if err := validateSchedule(schedule); err != nil {
		return nil, err
	}

	return schedule, nil
}

// Quote resolves the schedule for serviceType and prices units against it.
func (e *Engine) Quote(serviceType domain.ServiceType, units *decimal.Decimal, override domain.RateOverride) (Quote, error) {
	schedule, err := e.Resolve(serviceType, override)
	if err != nil {
		return Quote{}, err
	}

	return ComputeAmount(serviceType, units, schedule)
}

// ComputeAmount prices a bill.
//
// Metered: fixed_charges + unit_rate * units, rounded to 2 places.
// Flat: units, when given, is a caller asserted total and replaces base_rate.
// Metered with no units: fixed_charges alone.
func ComputeAmount(serviceType domain.ServiceType, units *decimal.Decimal, schedule domain.RateSchedule) (Quote, error) {
	if err := serviceType.Validate(); err != nil {
		return Quote{}, err
	}

	if schedule == nil {
		return Quote{}, customError.WrapRateNotConfigured(serviceType.String())
	}

	if err := validateSchedule(schedule); err != nil {
		return Quote{}, err
	}

	if units != nil && units.IsNegative() {
		return Quote{}, customError.WrapNegativeUnits(units.String())
	}

	var quote Quote

	switch s := schedule.(type) {
	case domain.FlatRate:
		quote.Amount = s.BaseRate
		if units != nil {
			quote.Amount = *units
		}

	case domain.MeteredRate:
		switch {
		case units == nil:
			quote.Amount = s.FixedCharges
		case !serviceType.Metered():
			quote.Amount = *units
		default:
			quote.Amount = s.FixedCharges.Add(s.UnitRate.Mul(*units))
			consumed := *units
			quote.UnitsConsumed = &consumed
		}

	default:
		return Quote{}, customError.WrapRateNotConfigured(serviceType.String())
	}

	quote.Amount = utils.RoundCurrency(quote.Amount)

	return quote, nil
}

func validateSchedule(schedule domain.RateSchedule) error {
	switch s := schedule.(type) {
	case domain.FlatRate:
		if s.BaseRate.IsNegative() {
			return customError.WrapValidation("base rate %s is negative", s.BaseRate)
		}
	case domain.MeteredRate:
		if s.FixedCharges.IsNegative() {
			return customError.WrapValidation("fixed charges %s is negative", s.FixedCharges)
		}
		if s.UnitRate.IsNegative() {
			return customError.WrapValidation("unit rate %s is negative", s.UnitRate)
		}
	}

	return nil
}
