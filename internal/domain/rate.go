package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RateKind tells the two pricing formulas apart.
type RateKind string

const (
	RateKindMetered RateKind = "metered"
	RateKindFlat    RateKind = "flat"
)

// RateSchedule is either a MeteredRate or a FlatRate.
type RateSchedule interface {
	Kind() RateKind
	isRateSchedule()
}

// MeteredRate prices a bill as FixedCharges + UnitRate * units.
type MeteredRate struct {
	FixedCharges decimal.Decimal `json:"fixed_charges"`
	UnitRate     decimal.Decimal `json:"unit_rate"`
}

func (MeteredRate) Kind() RateKind { return RateKindMetered }
func (MeteredRate) isRateSchedule() {}

func (m MeteredRate) MarshalJSON() ([]byte, error) {
	type alias MeteredRate
	return json.Marshal(struct {
		Kind RateKind `json:"kind"`
		alias
	}{RateKindMetered, alias(m)})
}

// FlatRate charges BaseRate regardless of consumption.
type FlatRate struct {
	BaseRate decimal.Decimal `json:"base_rate"`
}

func (FlatRate) Kind() RateKind { return RateKindFlat }
func (FlatRate) isRateSchedule() {}

func (f FlatRate) MarshalJSON() ([]byte, error) {
	type alias FlatRate
	return json.Marshal(struct {
		Kind RateKind `json:"kind"`
		alias
	}{RateKindFlat, alias(f)})
}

// RateTable holds the default schedule for each configured service.
type RateTable map[ServiceType]RateSchedule

// RateOverride carries caller supplied rate parameters. A BaseRate switches
// the bill to flat pricing; UnitRate/FixedCharges replace the metered parts.
type RateOverride struct {
	BaseRate     *decimal.Decimal `json:"base_rate,omitempty"`
	UnitRate     *decimal.Decimal `json:"unit_rate,omitempty"`
	FixedCharges *decimal.Decimal `json:"fixed_charges,omitempty"`
}

func (o RateOverride) IsZero() bool {
	return o.BaseRate == nil && o.UnitRate == nil && o.FixedCharges == nil
}
