package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/projection"
	"sensor_dashboard/internal/service"
	"sensor_dashboard/internal/store"
)

const csvFilename = "sensor-data.csv"

// viewState is everything a dashboard page renders from: synced data, device state
// and poller health.
type viewState struct {
	Snapshot store.Snapshot      `json:"snapshot"`
	Device   models.DeviceStatus `json:"device"`
	Poller   service.PollStatus  `json:"poller"`
}

func (h *Handler) currentView() viewState {
	return viewState{
		Snapshot: h.services.Monitoring.Snapshot(),
		Device:   h.services.Device.Status(),
		Poller:   h.services.Monitoring.PollStatus(),
	}
}

// queryMetrics reads ?metrics=vr,temp; empty means the dashboard default.
func queryMetrics(c *gin.Context) ([]models.Metric, bool) {
	ms, err := models.ParseMetricSet(c.Query("metrics"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return ms, true
}

// @Summary      Current view state
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "snapshot, device, poller"
// @Router       /api/v1/snapshot [get]
func (h *Handler) getSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.currentView())
}

// @Summary      Latest value of one metric
// @Description  Single-bar chart; no_data is set when the latest reading lacks the metric
// @Tags         charts
// @Produce      json
// @Param        metric  path  string  true  "Metric"  Enums(ldr,vr,temp,distance)
// @Success      200  {object}  projection.Chart
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/charts/latest/{metric} [get]
func (h *Handler) getLatestChart(c *gin.Context) {
	m, err := models.ParseMetric(c.Param("metric"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.services.Dashboard.LatestChart(m))
}

// @Summary      Latest values split by metric
// @Tags         charts
// @Produce      json
// @Param        metrics  query  string  false  "Comma-separated metrics"  example(vr,temp)
// @Success      200  {object}  projection.Chart
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/charts/split [get]
func (h *Handler) getSplitChart(c *gin.Context) {
	ms, ok := queryMetrics(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.services.Dashboard.SplitChart(ms))
}

// @Summary      Metric trends over the history window
// @Tags         charts
// @Produce      json
// @Param        metrics  query  string  false  "Comma-separated metrics"  example(vr)
// @Success      200  {object}  projection.Chart
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/charts/trend [get]
func (h *Handler) getTrendChart(c *gin.Context) {
	ms, ok := queryMetrics(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.services.Dashboard.TrendChart(ms))
}

func (h *Handler) table(c *gin.Context) (projection.Table, bool) {
	ms, ok := queryMetrics(c)
	if !ok {
		return projection.Table{}, false
	}
	tbl, err := h.services.Dashboard.Table(service.TableSource(c.DefaultQuery("source", string(service.SourceHistory))), ms)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return projection.Table{}, false
	}
	return tbl, true
}

// @Summary      Readings as a table
// @Tags         dashboard
// @Produce      json
// @Param        source   query  string  false  "Readings to tabulate"  Enums(history,latest)
// @Param        metrics  query  string  false  "Comma-separated metrics"
// @Success      200  {object}  projection.Table
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/table [get]
func (h *Handler) getTable(c *gin.Context) {
	tbl, ok := h.table(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tbl)
}

// @Summary      Readings as CSV
// @Tags         dashboard
// @Produce      text/csv
// @Param        source   query  string  false  "Readings to export"  Enums(history,latest)
// @Param        metrics  query  string  false  "Comma-separated metrics"
// @Success      200  {string}  string
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/export.csv [get]
func (h *Handler) exportCSV(c *gin.Context) {
	tbl, ok := h.table(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+csvFilename+`"`)
	c.Status(http.StatusOK)
	if err := projection.WriteCSV(c.Writer, tbl); err != nil && h.log != nil {
		h.log.Errorw("csv_export_failed", "err", err)
	}
}
