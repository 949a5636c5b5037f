package flightsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/smarttransit/flight-search-web/pkg/flightsapi"

// Airport is a single entry of the backend airport directory
type Airport struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AirportsResponse is the envelope returned by GET /api/v1/airports
type AirportsResponse struct {
	Data []Airport `json:"data"`
}

// FlightQuery holds the parameters of GET /api/v1/flights
type FlightQuery struct {
	Trips      string // "{origin}-{destination}"
	TripDate   string // ISO calendar date
	Travellers string
}

// Encode renders the query in the order the backend documents
func (q FlightQuery) Encode() string {
	return strings.Join([]string{
		"trips=" + url.QueryEscape(q.Trips),
		"tripDate=" + url.QueryEscape(q.TripDate),
		"trevellers=" + url.QueryEscape(q.Travellers),
	}, "&")
}

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("flights api returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the flights backend
type Client struct {
	baseURL string
	client  *http.Client
	tracer  trace.Tracer
}

// NewClient creates a flights backend client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer(tracerName),
	}
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListAirports fetches the airport directory
func (c *Client) ListAirports(ctx context.Context) ([]Airport, error) {
	ctx, span := c.tracer.Start(ctx, "flightsapi.ListAirports")
	defer span.End()

	body, err := c.get(ctx, "/api/v1/airports", "")
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	if err := validateAirports(body); err != nil {
		recordError(span, err)
		return nil, err
	}

	var resp AirportsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to decode airports response: %w", err)
	}

	span.SetAttributes(attribute.Int("airports.count", len(resp.Data)))
	return resp.Data, nil
}

// SearchFlights queries the flights endpoint and returns its data payload.
// The payload shape is owned by the backend and passed through untouched.
func (c *Client) SearchFlights(ctx context.Context, q FlightQuery) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "flightsapi.SearchFlights", trace.WithAttributes(
		attribute.String("flights.trips", q.Trips),
		attribute.String("flights.trip_date", q.TripDate),
	))
	defer span.End()

	body, err := c.get(ctx, "/api/v1/flights", q.Encode())
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data, nil
	}

	return json.RawMessage(body), nil
}

// get performs a GET against the backend and returns the body of a 2xx reply
func (c *Client) get(ctx context.Context, path, rawQuery string) ([]byte, error) {
	endpoint := c.baseURL + path
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	return body, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
