package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/smarttransit/flight-search-web/internal/models"
	"github.com/smarttransit/flight-search-web/internal/storage"
	"github.com/smarttransit/flight-search-web/pkg/flightsapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	jfk = models.AirportOption{Value: "JFK", Label: "New York (JFK)"}
	cdg = models.AirportOption{Value: "CDG", Label: "Paris (CDG)"}
)

func newTestForm() (*SearchForm, *AirportDirectoryMock, *FlightSearcherMock, *recordingNavigator) {
	airports := &AirportDirectoryMock{}
	flights := &FlightSearcherMock{}
	nav := &recordingNavigator{}
	return NewSearchForm(airports, flights, nav, quietLogger()), airports, flights, nav
}

func fillForm(form *SearchForm) {
	dep, arr := jfk, cdg
	form.SetDeparture(&dep)
	form.SetArrival(&arr)
	form.SetDate("2025-06-01")
	form.SetTravellerCount("2")
}

func TestLoadAirportCatalog_BuildsOptions(t *testing.T) {
	form, airports, _, _ := newTestForm()
	airports.On("ListAirports", mock.Anything).Return([]flightsapi.Airport{
		{Code: "JFK", Name: "New York"},
		{Code: "CDG", Name: "Paris"},
	}, nil)

	form.LoadAirportCatalog(context.Background())

	want := []models.AirportOption{
		{Value: "JFK", Label: "New York (JFK)"},
		{Value: "CDG", Label: "Paris (CDG)"},
	}
	if diff := cmp.Diff(want, form.Airports()); diff != "" {
		t.Errorf("airport options mismatch (-want +got):\n%s", diff)
	}

	opt, ok := form.FindAirport("CDG")
	assert.True(t, ok)
	assert.Equal(t, cdg, opt)

	_, ok = form.FindAirport("LHR")
	assert.False(t, ok)
}

func TestLoadAirportCatalog_FailureKeepsCatalogEmpty(t *testing.T) {
	form, airports, _, _ := newTestForm()
	airports.On("ListAirports", mock.Anything).Return(nil, errors.New("connection refused"))

	form.LoadAirportCatalog(context.Background())

	assert.Empty(t, form.Airports())
	airports.AssertNumberOfCalls(t, "ListAirports", 1)
}

func TestLoadAirportCatalog_FailureKeepsPriorCatalog(t *testing.T) {
	form, airports, _, _ := newTestForm()
	airports.On("ListAirports", mock.Anything).Return([]flightsapi.Airport{{Code: "JFK", Name: "New York"}}, nil).Once()
	airports.On("ListAirports", mock.Anything).Return(nil, &flightsapi.MalformedPayloadError{Violations: []string{"data: required"}}).Once()

	form.LoadAirportCatalog(context.Background())
	form.LoadAirportCatalog(context.Background())

	assert.Equal(t, []models.AirportOption{jfk}, form.Airports())
}

func TestSubmit_IncompleteFormSkipsNetworkAndNavigation(t *testing.T) {
	dep, arr := jfk, cdg
	cases := map[string]func(f *SearchForm){
		"all empty": func(f *SearchForm) {},
		"no departure": func(f *SearchForm) {
			f.SetArrival(&arr)
			f.SetDate("2025-06-01")
		},
		"no arrival": func(f *SearchForm) {
			f.SetDeparture(&dep)
			f.SetDate("2025-06-01")
		},
		"no date": func(f *SearchForm) {
			f.SetDeparture(&dep)
			f.SetArrival(&arr)
		},
	}

	for name, fill := range cases {
		t.Run(name, func(t *testing.T) {
			form, _, flights, nav := newTestForm()
			fill(form)

			target, err := form.Submit(context.Background())

			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "Please fill all fields", vErr.Message)
			assert.Empty(t, target)
			assert.Empty(t, nav.Targets())
			flights.AssertNotCalled(t, "SearchFlights", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_NavigatesRegardlessOfSearchOutcome(t *testing.T) {
	const want = "/flights?trips=JFK-CDG&tripDate=2025-06-01&trevellers=2"
	query := flightsapi.FlightQuery{Trips: "JFK-CDG", TripDate: "2025-06-01", Travellers: "2"}

	outcomes := map[string]func(m *FlightSearcherMock){
		"success": func(m *FlightSearcherMock) {
			m.On("SearchFlights", mock.Anything, query).Return(json.RawMessage(`[{"id":"AF23"}]`), nil)
		},
		"failure": func(m *FlightSearcherMock) {
			m.On("SearchFlights", mock.Anything, query).Return(nil, &flightsapi.StatusError{StatusCode: 500})
		},
	}

	for name, setup := range outcomes {
		t.Run(name, func(t *testing.T) {
			form, _, flights, nav := newTestForm()
			setup(flights)
			fillForm(form)

			target, err := form.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want, target)
			assert.Equal(t, []string{want}, nav.Targets())
			flights.AssertExpectations(t)
		})
	}
}

func TestSubmit_WaitsForSearchToSettle(t *testing.T) {
	form, _, flights, nav := newTestForm()
	fillForm(form)

	settled := make(chan struct{})
	flights.On("SearchFlights", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			time.Sleep(20 * time.Millisecond)
			close(settled)
		}).
		Return(json.RawMessage(`[]`), nil)

	_, err := form.Submit(context.Background())
	require.NoError(t, err)

	select {
	case <-settled:
	default:
		t.Fatal("navigation happened before the flight search settled")
	}
	assert.Len(t, nav.Targets(), 1)
}

func TestSubmit_AllowsSameAirportAndRawTravellers(t *testing.T) {
	form, _, flights, _ := newTestForm()
	flights.On("SearchFlights", mock.Anything, mock.Anything).Return(json.RawMessage(`[]`), nil)

	dep := jfk
	form.SetDeparture(&dep)
	form.SetArrival(&dep)
	form.SetDate("2001-01-01")
	form.SetTravellerCount("0")

	target, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/flights?trips=JFK-JFK&tripDate=2001-01-01&trevellers=0", target)
}

func TestSubmit_WithoutNavigator(t *testing.T) {
	flights := &FlightSearcherMock{}
	flights.On("SearchFlights", mock.Anything, mock.Anything).Return(json.RawMessage(`[]`), nil)
	form := NewSearchForm(&AirportDirectoryMock{}, flights, nil, quietLogger())
	fillForm(form)

	target, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/flights?trips=JFK-CDG&tripDate=2025-06-01&trevellers=2", target)
}

func TestSubmit_ClosedForm(t *testing.T) {
	form, _, flights, nav := newTestForm()
	fillForm(form)
	form.Close()

	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrFormClosed)
	assert.Empty(t, nav.Targets())
	flights.AssertNotCalled(t, "SearchFlights", mock.Anything, mock.Anything)
}

func TestEdits_IgnoredAfterClose(t *testing.T) {
	form, _, _, _ := newTestForm()
	fillForm(form)
	before := form.State()
	form.Close()

	other := models.AirportOption{Value: "LHR", Label: "London (LHR)"}
	form.SetDeparture(&other)
	form.SetArrival(nil)
	form.Swap()
	form.SetDate("2030-01-01")
	form.SetTravellerCount("9")

	assert.Equal(t, before, form.State())
}

func TestSwap_IsItsOwnInverse(t *testing.T) {
	dep, arr := jfk, cdg
	pairs := []struct {
		name      string
		departure *models.AirportOption
		arrival   *models.AirportOption
	}{
		{"both set", &dep, &arr},
		{"only departure", &dep, nil},
		{"only arrival", nil, &arr},
		{"both empty", nil, nil},
	}

	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			form, _, _, _ := newTestForm()
			form.SetDeparture(p.departure)
			form.SetArrival(p.arrival)
			before := form.State()

			form.Swap()
			swapped := form.State()
			assert.Equal(t, before.Departure, swapped.Arrival)
			assert.Equal(t, before.Arrival, swapped.Departure)

			form.Swap()
			assert.Equal(t, before, form.State())
		})
	}
}

func TestState_IsASnapshot(t *testing.T) {
	form, _, _, _ := newTestForm()
	dep := jfk
	form.SetDeparture(&dep)

	// Mutating the caller's option must not leak into the form
	dep.Value = "LHR"
	snapshot := form.State()
	assert.Equal(t, "JFK", snapshot.Departure.Value)

	snapshot.Departure.Value = "ORY"
	assert.Equal(t, "JFK", form.State().Departure.Value)
}

func TestNewSearchForm_Defaults(t *testing.T) {
	form, _, _, _ := newTestForm()
	state := form.State()
	assert.Nil(t, state.Departure)
	assert.Nil(t, state.Arrival)
	assert.Empty(t, state.TripDate)
	assert.Equal(t, "1", state.Travellers)
	assert.Empty(t, form.Airports())
}

func TestMount_LoadsCatalogAndIdentityConcurrently(t *testing.T) {
	form, airports, _, _ := newTestForm()
	airports.On("ListAirports", mock.Anything).Return([]flightsapi.Airport{{Code: "JFK", Name: "New York"}}, nil)

	identity := NewIdentityService(storage.NewMemoryStore(), quietLogger(),
		WithIDGenerator(func() string { return "client-1" }))

	form.Mount(identity)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, form.WaitMounted(ctx))

	assert.Equal(t, []models.AirportOption{jfk}, form.Airports())
	assert.Equal(t, "client-1", form.ClientID())
}

func TestClose_CancelsInFlightCatalogAndDropsLateResult(t *testing.T) {
	form, airports, _, _ := newTestForm()

	started := make(chan struct{})
	airports.On("ListAirports", mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			close(started)
			<-ctx.Done()
		}).
		Return([]flightsapi.Airport{{Code: "JFK", Name: "New York"}}, nil)

	form.Mount(nil)
	<-started

	form.Close()

	assert.True(t, form.Closed())
	assert.Empty(t, form.Airports())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, form.WaitMounted(ctx))

	// Idempotent
	form.Close()
}

func TestMount_AfterCloseDoesNothing(t *testing.T) {
	form, airports, _, _ := newTestForm()
	form.Close()

	form.Mount(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, form.WaitMounted(ctx))
	airports.AssertNotCalled(t, "ListAirports", mock.Anything)
}

func TestMinTripDate(t *testing.T) {
	form, _, _, _ := newTestForm()
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local)
	assert.Equal(t, "2025-06-01", form.MinTripDate(now))
}
