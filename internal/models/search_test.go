package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAirportOption(t *testing.T) {
	opt := NewAirportOption("JFK", "New York")
	assert.Equal(t, "JFK", opt.Value)
	assert.Equal(t, "New York (JFK)", opt.Label)
}

func TestSearchState_Validate(t *testing.T) {
	jfk := NewAirportOption("JFK", "New York")
	cdg := NewAirportOption("CDG", "Paris")

	tests := []struct {
		name    string
		state   SearchState
		wantErr bool
	}{
		{"empty", NewSearchState(), true},
		{"missing arrival", SearchState{Departure: &jfk, TripDate: "2025-06-01"}, true},
		{"missing date", SearchState{Departure: &jfk, Arrival: &cdg}, true},
		{"blank departure code", SearchState{Departure: &AirportOption{}, Arrival: &cdg, TripDate: "2025-06-01"}, true},
		{"complete", SearchState{Departure: &jfk, Arrival: &cdg, TripDate: "2025-06-01"}, false},
		{"same airport both ends", SearchState{Departure: &jfk, Arrival: &jfk, TripDate: "2025-06-01"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "Please fill all fields", vErr.Message)
		})
	}
}

func TestSearchQuery_ResultsURL(t *testing.T) {
	jfk := NewAirportOption("JFK", "New York")
	cdg := NewAirportOption("CDG", "Paris")
	state := SearchState{Departure: &jfk, Arrival: &cdg, TripDate: "2025-06-01", Travellers: "2"}

	q := state.Query()
	assert.Equal(t, "JFK-CDG", q.Trips())
	assert.Equal(t, "trips=JFK-CDG&tripDate=2025-06-01&trevellers=2", q.Encode())
	assert.Equal(t, "/flights?trips=JFK-CDG&tripDate=2025-06-01&trevellers=2", q.ResultsURL())
}

func TestSearchQuery_EncodePassesMalformedTravellers(t *testing.T) {
	q := SearchQuery{Origin: "JFK", Destination: "CDG", TripDate: "2020-01-01", Travellers: "0"}
	assert.Equal(t, "trips=JFK-CDG&tripDate=2020-01-01&trevellers=0", q.Encode())

	q.Travellers = ""
	assert.Equal(t, "trips=JFK-CDG&tripDate=2020-01-01&trevellers=", q.Encode())
}

func TestMinTripDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.Local)
	assert.Equal(t, "2025-06-01", MinTripDate(now))
}
