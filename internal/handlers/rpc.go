package handlers

import (
	"net/http"
	"strings"

	"simdash"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errProcedureFailed = "procedure failed"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// InsertSimulationEventRequest is the body of insert_simulation_event.
type InsertSimulationEventRequest struct {
	// started | stopped
	EventType string `json:"event_type" binding:"required" example:"started"`
	// Actor recorded on the event; defaults to the caller's email.
	UserID string `json:"user_id,omitempty" example:"alice@example.com"`
}

// InsertCheckupEventRequest is the body of insert_checkup_event.
type InsertCheckupEventRequest struct {
	Temperature  *int   `json:"temperature" binding:"required" example:"42"`
	SimulationID string `json:"simulation_id" binding:"required"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Record a simulation start or stop
// @Description  Rejects a start while running and a stop while stopped with success=false.
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Param        body  body      InsertSimulationEventRequest  true  "Event"
// @Success      200   {object}  simdash.MutationResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/rpc/insert_simulation_event [post]
// @Security     BearerAuth
func (h *Handler) insertSimulationEvent(c *gin.Context) {
	var req InsertSimulationEventRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	actor := strings.TrimSpace(req.UserID)
	if actor == "" {
		if u, err := h.services.GetUser(userID(c)); err == nil {
			actor = u.Email
		}
	}

	res, err := h.services.InsertSimulationEvent(c.Request.Context(), req.EventType, actor)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errProcedureFailed, "rpc_insert_simulation_event_failed", err, "event_type", req.EventType)
		return
	}
	if !res.Success && h.log != nil {
		h.log.Infow("rpc_insert_simulation_event_rejected", "event_type", req.EventType, "reason", res.Error)
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Record a temperature checkup
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Param        body  body      InsertCheckupEventRequest  true  "Checkup"
// @Success      200   {object}  simdash.CheckupResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/rpc/insert_checkup_event [post]
// @Security     BearerAuth
func (h *Handler) insertCheckupEvent(c *gin.Context) {
	var req InsertCheckupEventRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	res, err := h.services.InsertCheckupEvent(c.Request.Context(), *req.Temperature, req.SimulationID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errProcedureFailed, "rpc_insert_checkup_event_failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Active simulation id
// @Description  Returns the id of the latest event when it is a start; empty otherwise.
// @Tags         rpc
// @Produce      json
// @Success      200  {object}  simdash.ActiveSimulation
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/rpc/get_active_simulation_id [post]
// @Security     BearerAuth
func (h *Handler) activeSimulationID(c *gin.Context) {
	id, err := h.services.ActiveSimulationID(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errProcedureFailed, "rpc_active_simulation_id_failed", err)
		return
	}
	c.JSON(http.StatusOK, simdash.ActiveSimulation{ID: id})
}
