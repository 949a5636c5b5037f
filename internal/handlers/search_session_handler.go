package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/flight-search-web/internal/middleware"
	"github.com/smarttransit/flight-search-web/internal/models"
	"github.com/smarttransit/flight-search-web/internal/services"
)

// SearchSessionHandler exposes search form sessions over HTTP
type SearchSessionHandler struct {
	sessions  *services.FormSessionService
	mountWait time.Duration
	now       func() time.Time
	logger    *logrus.Logger
}

// NewSearchSessionHandler creates a new search session handler. mountWait
// bounds how long reads wait for the airport catalog to load.
func NewSearchSessionHandler(sessions *services.FormSessionService, mountWait time.Duration, logger *logrus.Logger) *SearchSessionHandler {
	return &SearchSessionHandler{
		sessions:  sessions,
		mountWait: mountWait,
		now:       time.Now,
		logger:    logger,
	}
}

// RegisterRoutes mounts the session routes on the group
func (h *SearchSessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.OpenSession)
	rg.GET("/:id", h.GetSession)
	rg.DELETE("/:id", h.CloseSession)
	rg.GET("/:id/airports", h.ListAirports)
	rg.PUT("/:id/departure", h.SetDeparture)
	rg.PUT("/:id/arrival", h.SetArrival)
	rg.PUT("/:id/date", h.SetDate)
	rg.PUT("/:id/travellers", h.SetTravellers)
	rg.POST("/:id/swap", h.Swap)
	rg.POST("/:id/submit", h.Submit)
}

// AirportRequest selects an airport by code; an empty code clears the field
type AirportRequest struct {
	Code string `json:"code"`
}

// DateRequest sets the trip date
type DateRequest struct {
	Date string `json:"date"`
}

// TravellersRequest sets the raw traveller count
type TravellersRequest struct {
	Value string `json:"value"`
}

// SessionResponse is the view of one form session
type SessionResponse struct {
	SessionID   string                 `json:"session_id"`
	ClientID    string                 `json:"client_id"`
	Departure   *models.AirportOption  `json:"departure"`
	Arrival     *models.AirportOption  `json:"arrival"`
	TripDate    string                 `json:"trip_date"`
	Travellers  string                 `json:"travellers"`
	MinTripDate string                 `json:"min_trip_date"`
	Airports    []models.AirportOption `json:"airports"`
	Routes      map[string]string      `json:"routes"`
}

// OpenSession handles POST /api/v1/search-sessions
func (h *SearchSessionHandler) OpenSession(c *gin.Context) {
	clientID, _ := middleware.GetClientID(c)
	session, err := h.sessions.Open(clientID)
	if err != nil {
		h.logger.WithError(err).WithField("client_id", clientID).Warn("Search session refused")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "Search is temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":     "success",
		"session_id": session.ID,
		"client_id":  clientID,
	})
}

// GetSession handles GET /api/v1/search-sessions/:id
func (h *SearchSessionHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.waitMounted(c.Request.Context(), session)

	c.JSON(http.StatusOK, h.view(session))
}

// ListAirports handles GET /api/v1/search-sessions/:id/airports
func (h *SearchSessionHandler) ListAirports(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.waitMounted(c.Request.Context(), session)

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   session.Form.Airports(),
	})
}

// SetDeparture handles PUT /api/v1/search-sessions/:id/departure
func (h *SearchSessionHandler) SetDeparture(c *gin.Context) {
	h.setAirport(c, (*services.SearchForm).SetDeparture)
}

// SetArrival handles PUT /api/v1/search-sessions/:id/arrival
func (h *SearchSessionHandler) SetArrival(c *gin.Context) {
	h.setAirport(c, (*services.SearchForm).SetArrival)
}

func (h *SearchSessionHandler) setAirport(c *gin.Context, set func(*services.SearchForm, *models.AirportOption)) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req AirportRequest
	if !h.bind(c, &req) {
		return
	}

	if req.Code == "" {
		set(session.Form, nil)
		c.JSON(http.StatusOK, h.view(session))
		return
	}

	h.waitMounted(c.Request.Context(), session)
	option, found := session.Form.FindAirport(req.Code)
	if !found {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Unknown airport code: " + req.Code,
		})
		return
	}

	set(session.Form, &option)
	c.JSON(http.StatusOK, h.view(session))
}

// SetDate handles PUT /api/v1/search-sessions/:id/date
func (h *SearchSessionHandler) SetDate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req DateRequest
	if !h.bind(c, &req) {
		return
	}

	session.Form.SetDate(req.Date)
	c.JSON(http.StatusOK, h.view(session))
}

// SetTravellers handles PUT /api/v1/search-sessions/:id/travellers
func (h *SearchSessionHandler) SetTravellers(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req TravellersRequest
	if !h.bind(c, &req) {
		return
	}

	session.Form.SetTravellerCount(req.Value)
	c.JSON(http.StatusOK, h.view(session))
}

// Swap handles POST /api/v1/search-sessions/:id/swap
func (h *SearchSessionHandler) Swap(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session.Form.Swap()
	c.JSON(http.StatusOK, h.view(session))
}

// Submit handles POST /api/v1/search-sessions/:id/submit
func (h *SearchSessionHandler) Submit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	target, err := session.Form.Submit(c.Request.Context())
	if err != nil {
		var validationErr *models.ValidationError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": validationErr.Message,
			})
		case errors.Is(err, services.ErrFormClosed):
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Search session not found",
			})
		default:
			h.logger.WithError(err).WithField("session_id", session.ID).Error("Search submission failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to submit search",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"redirect": target,
	})
}

// CloseSession handles DELETE /api/v1/search-sessions/:id
func (h *SearchSessionHandler) CloseSession(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}

	if err := h.sessions.Close(c.Param("id")); err != nil {
		h.notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Search session closed",
	})
}

// session resolves the :id session owned by the calling client
func (h *SearchSessionHandler) session(c *gin.Context) (*services.FormSession, bool) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.notFound(c)
		return nil, false
	}

	clientID, _ := middleware.GetClientID(c)
	if session.ClientID != clientID {
		h.logger.WithFields(logrus.Fields{
			"session_id": session.ID,
			"client_id":  clientID,
		}).Warn("Search session accessed by another client")
		h.notFound(c)
		return nil, false
	}
	return session, true
}

func (h *SearchSessionHandler) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"status":  "error",
		"message": "Search session not found",
	})
}

func (h *SearchSessionHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return false
	}
	return true
}

// waitMounted gives the catalog load a bounded head start; reads proceed
// with whatever options are loaded once it expires
func (h *SearchSessionHandler) waitMounted(ctx context.Context, session *services.FormSession) {
	if h.mountWait <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.mountWait)
	defer cancel()

	if err := session.Form.WaitMounted(ctx); err != nil {
		h.logger.WithField("session_id", session.ID).Debug("Airport catalog still loading")
	}
}

func (h *SearchSessionHandler) view(session *services.FormSession) SessionResponse {
	state := session.Form.State()
	return SessionResponse{
		SessionID:   session.ID,
		ClientID:    session.ClientID,
		Departure:   state.Departure,
		Arrival:     state.Arrival,
		TripDate:    state.TripDate,
		Travellers:  state.Travellers,
		MinTripDate: session.Form.MinTripDate(h.now()),
		Airports:    session.Form.Airports(),
		Routes: map[string]string{
			"results":  models.ResultsRoute,
			"bookings": models.BookingsRoute,
		},
	}
}
