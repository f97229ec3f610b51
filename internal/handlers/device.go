package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/telemetry"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK         = "ok"
	statusAccepted   = "accepted"
	statusReconciled = "reconciled"

	errSendCommand     = "Failed to send command to the board."
	errFetchStatus     = "failed to fetch device status"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// upstreamCode maps a telemetry failure to the status returned to the operator.
func upstreamCode(err error) int {
	if telemetry.Kind(err) == telemetry.KindUnknown {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

// CommandRequest is the payload of POST /api/v1/device/commands.
type CommandRequest struct {
	// Command token: OFF, <NAME>_ON or <NAME>_OFF
	Command string `json:"command" binding:"required" example:"BUZZER_ON"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
		"poller": h.services.Monitoring.PollStatus(),
	})
}

// @Summary      Device status
// @Description  Reconciled actuator state, including the pending command if any
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.DeviceStatus
// @Router       /api/v1/device [get]
func (h *Handler) getDevice(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Device.Status())
}

// @Summary      Issue a device command
// @Description  Acceptance by the board makes the command pending; it is confirmed by a later status check
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      CommandRequest  true  "Command payload"
// @Success      202   {object}  map[string]interface{}  "status, device"
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]interface{}
// @Router       /api/v1/device/commands [post]
func (h *Handler) issueCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	st, err := h.services.Device.Issue(c.Request.Context(), models.Command(req.Command))
	if err != nil {
		if errors.Is(err, models.ErrInvalidCommand) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if h.log != nil {
			h.log.Errorw("device_command_failed", "err", err, "command", req.Command, "kind", telemetry.Kind(err))
		}
		c.JSON(upstreamCode(err), gin.H{"error": errSendCommand, "device": st})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted, "device": st})
}

// @Summary      Reconcile device status now
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, device"
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/device/reconcile [post]
func (h *Handler) reconcileDevice(c *gin.Context) {
	st, err := h.services.Device.Reconcile(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, upstreamCode(err), errFetchStatus, "device_reconcile_failed", err, "kind", telemetry.Kind(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusReconciled, "device": st})
}
