package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"simdash/internal/models"
	"simdash/internal/report"
	"simdash/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid  = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid    = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errOrderInvalid = "invalid 'order'; use asc or desc"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// CreateCheckupRequest is the body of a direct checkup insert.
type CreateCheckupRequest struct {
	Temperature  *int   `json:"temperature" binding:"required" example:"95"`
	Status       string `json:"status,omitempty" example:"critical"`
	SimulationID string `json:"simulation_id" binding:"required" example:"test-email-1700000000000"`
}

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// parseOrder maps ?order=asc|desc to newestFirst, using def when absent.
func parseOrder(c *gin.Context, newestFirstByDefault bool) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(c.Query("order"))) {
	case "":
		return newestFirstByDefault, true
	case "desc":
		return true, true
	case "asc":
		return false, true
	}
	return false, false
}

// @Summary      List simulation events
// @Tags         events
// @Produce      json
// @Param        order  query     string  false  "Sort order (default desc)"  Enums(asc,desc)
// @Success      200    {object}  map[string]interface{}  "count, events"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/simulation-events [get]
// @Security     BearerAuth
func (h *Handler) listSimulationEvents(c *gin.Context) {
	newestFirst, ok := parseOrder(c, true)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errOrderInvalid})
		return
	}
	events, err := h.services.SimulationEvents(c.Request.Context(), newestFirst)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load simulation events", "simulation_events_list_failed", err)
		return
	}
	if events == nil {
		events = []models.SimulationEvent{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// parseCheckupFilter reads order/from/to. It writes the 400 itself and reports false on bad input.
func parseCheckupFilter(c *gin.Context) (service.CheckupFilter, bool) {
	var (
		f   service.CheckupFilter
		err error
		ok  bool
	)
	if f.NewestFirst, ok = parseOrder(c, false); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errOrderInvalid})
		return f, false
	}
	// Parse 'from' (optional)
	if qs := c.Query("from"); qs != "" {
		f.From, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return f, false
		}
	}
	// Parse 'to' (optional). If only a date is provided, make it end-of-day inclusive.
	if qs := c.Query("to"); qs != "" {
		f.To, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return f, false
		}
		if isDateOnly(qs) {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return f, false
	}
	return f, true
}

// @Summary      List checkup events
// @Description  Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). A date-only 'to' is end-of-day inclusive.
// @Tags         events
// @Produce      json
// @Param        order  query     string  false  "Sort order (default asc)"  Enums(asc,desc)
// @Param        from   query     string  false  "Start of range"  example(2025-08-01)
// @Param        to     query     string  false  "End of range"    example(2025-08-31)
// @Success      200    {object}  map[string]interface{}  "count, events"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/checkup-events [get]
// @Security     BearerAuth
func (h *Handler) listCheckups(c *gin.Context) {
	f, ok := parseCheckupFilter(c)
	if !ok {
		return
	}
	events, err := h.services.Checkups(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load checkups", "checkups_list_failed", err, "from", f.From, "to", f.To)
		return
	}
	if events == nil {
		events = []models.CheckupEvent{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Insert a checkup directly
// @Description  Bypasses the running-simulation procedure; used for alert tests.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        body  body      CreateCheckupRequest  true  "Checkup"
// @Success      201   {object}  models.CheckupEvent
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/checkup-events [post]
// @Security     BearerAuth
func (h *Handler) createCheckup(c *gin.Context) {
	var req CreateCheckupRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ev, err := h.services.RecordCheckup(c.Request.Context(), models.CheckupEvent{
		Temperature:  *req.Temperature,
		Status:       req.Status,
		SimulationID: req.SimulationID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidTemperature) || errors.Is(err, service.ErrInvalidCheckup) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to insert checkup", "checkup_insert_failed", err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// @Summary      Export checkups as XLSX
// @Tags         events
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from  query  string  false  "Start of range"
// @Param        to    query  string  false  "End of range"
// @Success      200
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/checkup-events/export [get]
// @Security     BearerAuth
func (h *Handler) exportCheckups(c *gin.Context) {
	f, ok := parseCheckupFilter(c)
	if !ok {
		return
	}
	events, err := h.services.Checkups(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load checkups", "checkups_export_failed", err)
		return
	}
	now := time.Now().UTC()
	raw, err := report.BuildCheckupsXLSX(events, now)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to build export", "checkups_export_failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="checkups-%s.xlsx"`, now.Format("20060102-150405")))
	c.Data(http.StatusOK, xlsxContentType, raw)
}

func parseQueryTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
