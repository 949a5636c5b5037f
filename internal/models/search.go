package models

import (
	"net/url"
	"strings"
	"time"
)

const (
	// ResultsRoute is the client route that renders flight results
	ResultsRoute = "/flights"

	// BookingsRoute is the client route listing the traveller's bookings
	BookingsRoute = "/book"

	// DefaultTravellers is the traveller count a fresh form starts with
	DefaultTravellers = "1"

	// tripDateLayout is the ISO calendar date layout used by the date picker
	tripDateLayout = "2006-01-02"
)

// SearchState is the in-memory record of the trip query before submission
type SearchState struct {
	Departure  *AirportOption `json:"departure"`
	Arrival    *AirportOption `json:"arrival"`
	TripDate   string         `json:"trip_date"`
	Travellers string         `json:"travellers"` // Raw input, not clamped
}

// NewSearchState returns the state a freshly mounted form starts with
func NewSearchState() SearchState {
	return SearchState{Travellers: DefaultTravellers}
}

// IsComplete reports whether departure, arrival and date are all set
func (s SearchState) IsComplete() bool {
	return s.Departure != nil && s.Departure.Value != "" &&
		s.Arrival != nil && s.Arrival.Value != "" &&
		s.TripDate != ""
}

// Validate checks the state is ready for submission
func (s SearchState) Validate() error {
	if !s.IsComplete() {
		return ErrInvalidInput("Please fill all fields")
	}
	return nil
}

// Query builds the search query from a complete state.
// Callers must Validate first.
func (s SearchState) Query() SearchQuery {
	return SearchQuery{
		Origin:      s.Departure.Value,
		Destination: s.Arrival.Value,
		TripDate:    s.TripDate,
		Travellers:  s.Travellers,
	}
}

// SearchQuery is the submitted trip intent
type SearchQuery struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	TripDate    string `json:"trip_date"`
	Travellers  string `json:"travellers"`
}

// Trips returns the origin-destination pair as the backend expects it
func (q SearchQuery) Trips() string {
	return q.Origin + "-" + q.Destination
}

// Encode renders the query string shared by the flights endpoint and the
// results route. Parameter order is fixed: trips, tripDate, trevellers.
func (q SearchQuery) Encode() string {
	pairs := []string{
		"trips=" + url.QueryEscape(q.Trips()),
		"tripDate=" + url.QueryEscape(q.TripDate),
		"trevellers=" + url.QueryEscape(q.Travellers),
	}
	return strings.Join(pairs, "&")
}

// ResultsURL returns the navigation target for this query
func (q SearchQuery) ResultsURL() string {
	return ResultsRoute + "?" + q.Encode()
}

// MinTripDate returns the earliest date the picker offers: today, local time
func MinTripDate(now time.Time) string {
	return now.Local().Format(tripDateLayout)
}

// ErrInvalidInput creates a validation error
func ErrInvalidInput(message string) error {
	return &ValidationError{Message: message}
}

// ValidationError represents user input that cannot be submitted
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
