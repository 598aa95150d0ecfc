package domain

import (
	customError "github.com/segyhp/civic-billing/pkg/errors"
)

// ServiceType identifies the municipal service a bill is raised for.
type ServiceType string

const (
	ServiceElectricity  ServiceType = "electricity"
	ServiceWater        ServiceType = "water"
	ServiceGas          ServiceType = "gas"
	ServiceAirPollution ServiceType = "air_pollution"
)

// ServiceTypes lists every known service in display order.
var ServiceTypes = []ServiceType{
	ServiceElectricity,
	ServiceWater,
	ServiceGas,
	ServiceAirPollution,
}

func (s ServiceType) String() string {
	return string(s)
}

func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceElectricity, ServiceWater, ServiceGas, ServiceAirPollution:
		return true
	}

	return false
}

func (s ServiceType) Validate() error {
	if !s.IsValid() {
		return customError.WrapValidation("unknown service type %q", string(s))
	}
	return nil
}

// Metered reports whether the service is normally priced per unit.
func (s ServiceType) Metered() bool {
	return s == ServiceElectricity || s == ServiceWater || s == ServiceGas
}
