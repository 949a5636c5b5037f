package models

import "fmt"

// AirportOption is a selectable entry in the departure/arrival pickers
type AirportOption struct {
	Value string `json:"value"` // IATA code, e.g. "JFK"
	Label string `json:"label"` // "New York (JFK)"
}

// NewAirportOption builds a picker option from a backend code/name pair
func NewAirportOption(code, name string) AirportOption {
	return AirportOption{
		Value: code,
		Label: fmt.Sprintf("%s (%s)", name, code),
	}
}
