package handlers

import (
	"net/http"
	"strings"

	"simdash"

	"github.com/gin-gonic/gin"
)

// @Summary      Send critical temperature alert
// @Description  Renders and emails the alert. On delivery failure the response carries the rendered message as fallback.
// @Tags         functions
// @Accept       json
// @Produce      json
// @Param        body  body      simdash.AlertRequest  true  "Alert"
// @Success      200   {object}  simdash.AlertResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  simdash.AlertResult
// @Router       /api/v1/functions/send-critical-alert [post]
// @Security     BearerAuth
func (h *Handler) sendCriticalAlert(c *gin.Context) {
	var req simdash.AlertRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if strings.TrimSpace(req.UserEmail) == "" {
		if u, err := h.services.GetUser(userID(c)); err == nil {
			req.UserEmail = u.Email
		}
	}

	res := h.services.SendCriticalAlert(c.Request.Context(), req)
	if !res.Success {
		c.JSON(http.StatusInternalServerError, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
