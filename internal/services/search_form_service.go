package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/flight-search-web/internal/models"
	"github.com/smarttransit/flight-search-web/pkg/flightsapi"
)

// ErrFormClosed is returned by operations on a torn-down form
var ErrFormClosed = errors.New("search form is closed")

// AirportDirectory lists the airports offered by the backend
type AirportDirectory interface {
	ListAirports(ctx context.Context) ([]flightsapi.Airport, error)
}

// FlightSearcher runs a flight search against the backend
type FlightSearcher interface {
	SearchFlights(ctx context.Context, q flightsapi.FlightQuery) (json.RawMessage, error)
}

// ClientIdentifier ensures a client identifier exists
type ClientIdentifier interface {
	EnsureClientID(ctx context.Context) (string, error)
}

// Navigator moves the client to another route
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(target string)

// Navigate calls f(target)
func (f NavigatorFunc) Navigate(target string) {
	f(target)
}

// SearchForm owns the state of one search widget for one page view
type SearchForm struct {
	airports  AirportDirectory
	flights   FlightSearcher
	navigator Navigator
	logger    *logrus.Logger

	mu       sync.RWMutex
	state    models.SearchState
	options  []models.AirportOption
	clientID string
	closed   bool

	ctx     context.Context
	cancel  context.CancelFunc
	tasks   sync.WaitGroup
	mounted chan struct{}
	once    sync.Once
}

// NewSearchForm creates a form in its initial empty state
func NewSearchForm(airports AirportDirectory, flights FlightSearcher, navigator Navigator, logger *logrus.Logger) *SearchForm {
	ctx, cancel := context.WithCancel(context.Background())
	return &SearchForm{
		airports:  airports,
		flights:   flights,
		navigator: navigator,
		logger:    logger,
		state:     models.NewSearchState(),
		options:   []models.AirportOption{},
		ctx:       ctx,
		cancel:    cancel,
		mounted:   make(chan struct{}),
	}
}

// Mount starts the identity ensure (when identity is non-nil) and the
// catalog fetch. Both run concurrently and never block the caller.
func (f *SearchForm) Mount(identity ClientIdentifier) {
	var mount sync.WaitGroup

	if identity != nil {
		mount.Add(1)
		if !f.spawn(func(ctx context.Context) {
			defer mount.Done()
			f.ensureIdentity(ctx, identity)
		}) {
			mount.Done()
		}
	}

	mount.Add(1)
	if !f.spawn(func(ctx context.Context) {
		defer mount.Done()
		f.LoadAirportCatalog(ctx)
	}) {
		mount.Done()
	}

	go func() {
		mount.Wait()
		f.once.Do(func() { close(f.mounted) })
	}()
}

// WaitMounted blocks until the mount tasks settle or ctx is done
func (f *SearchForm) WaitMounted(ctx context.Context) error {
	select {
	case <-f.mounted:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn runs fn as a task bound to the form's lifetime
func (f *SearchForm) spawn(fn func(ctx context.Context)) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}

	f.tasks.Add(1)
	go func() {
		defer f.tasks.Done()
		fn(f.ctx)
	}()
	return true
}

func (f *SearchForm) ensureIdentity(ctx context.Context, identity ClientIdentifier) {
	clientID, err := identity.EnsureClientID(ctx)
	if err != nil {
		f.logger.WithError(err).Error("Failed to ensure client id")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.clientID = clientID
	}
}

// LoadAirportCatalog fetches the airport directory and replaces the picker
// options. Failures leave the catalog unchanged and are only logged.
func (f *SearchForm) LoadAirportCatalog(ctx context.Context) {
	airports, err := f.airports.ListAirports(ctx)
	if err != nil {
		f.logger.WithError(err).Error("Error fetching airports")
		return
	}

	options := make([]models.AirportOption, 0, len(airports))
	for _, a := range airports {
		options = append(options, models.NewAirportOption(a.Code, a.Name))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		f.logger.Debug("Discarding airport catalog for closed form")
		return
	}
	f.options = options

	f.logger.WithField("airports", len(options)).Debug("Airport catalog loaded")
}

// Airports returns a copy of the picker options
func (f *SearchForm) Airports() []models.AirportOption {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]models.AirportOption, len(f.options))
	copy(out, f.options)
	return out
}

// FindAirport looks up a catalog option by code
func (f *SearchForm) FindAirport(code string) (models.AirportOption, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, opt := range f.options {
		if opt.Value == code {
			return opt, true
		}
	}
	return models.AirportOption{}, false
}

// ClientID returns the identifier ensured during mount, if any
func (f *SearchForm) ClientID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.clientID
}

// State returns a snapshot of the form state
func (f *SearchForm) State() models.SearchState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cloneState(f.state)
}

// SetDeparture replaces the departure selection; nil clears it
func (f *SearchForm) SetDeparture(option *models.AirportOption) {
	f.update(func(s *models.SearchState) { s.Departure = cloneOption(option) })
}

// SetArrival replaces the arrival selection; nil clears it
func (f *SearchForm) SetArrival(option *models.AirportOption) {
	f.update(func(s *models.SearchState) { s.Arrival = cloneOption(option) })
}

// Swap exchanges departure and arrival in a single update
func (f *SearchForm) Swap() {
	f.update(func(s *models.SearchState) { s.Departure, s.Arrival = s.Arrival, s.Departure })
}

// SetDate stores the trip date as given. The picker's minimum is advisory.
func (f *SearchForm) SetDate(value string) {
	f.update(func(s *models.SearchState) { s.TripDate = value })
}

// SetTravellerCount stores the raw traveller input without clamping
func (f *SearchForm) SetTravellerCount(value string) {
	f.update(func(s *models.SearchState) { s.Travellers = value })
}

// update applies fn to the state under the lock; a closed form ignores edits
func (f *SearchForm) update(fn func(*models.SearchState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	fn(&f.state)
}

// MinTripDate returns the picker's advisory minimum date
func (f *SearchForm) MinTripDate(now time.Time) string {
	return models.MinTripDate(now)
}

// Submit validates the form, runs a best-effort flight search and navigates
// to the results route. Incomplete input returns a *models.ValidationError
// without any network call or navigation. The search outcome never changes
// the navigation target.
func (f *SearchForm) Submit(ctx context.Context) (string, error) {
	f.mu.RLock()
	closed := f.closed
	state := cloneState(f.state)
	f.mu.RUnlock()

	if closed {
		return "", ErrFormClosed
	}

	if err := state.Validate(); err != nil {
		f.logger.WithError(err).Warn("Search submitted with missing fields")
		return "", err
	}

	query := state.Query()
	f.searchFlights(ctx, query)

	target := query.ResultsURL()
	if f.navigator != nil {
		f.navigator.Navigate(target)
	}

	f.logger.WithField("target", target).Info("Navigating to flight results")
	return target, nil
}

// searchFlights performs the diagnostic flight search and waits for it to
// settle. The call is cancelled if the form is closed meanwhile.
func (f *SearchForm) searchFlights(ctx context.Context, query models.SearchQuery) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(f.ctx, cancel)
	defer stop()

	data, err := f.flights.SearchFlights(ctx, flightsapi.FlightQuery{
		Trips:      query.Trips(),
		TripDate:   query.TripDate,
		Travellers: query.Travellers,
	})
	if err != nil {
		f.logger.WithError(err).WithField("trips", query.Trips()).Error("Error fetching flights")
		return
	}

	f.logger.WithFields(logrus.Fields{
		"trips":   query.Trips(),
		"flights": string(data),
	}).Info("Flights")
}

// Close cancels outstanding tasks and waits for them. Idempotent.
func (f *SearchForm) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.cancel()
	f.tasks.Wait()
	f.once.Do(func() { close(f.mounted) })
}

// Closed reports whether the form has been torn down
func (f *SearchForm) Closed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

func cloneOption(option *models.AirportOption) *models.AirportOption {
	if option == nil {
		return nil
	}
	c := *option
	return &c
}

func cloneState(s models.SearchState) models.SearchState {
	s.Departure = cloneOption(s.Departure)
	s.Arrival = cloneOption(s.Arrival)
	return s
}
