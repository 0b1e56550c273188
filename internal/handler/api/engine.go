package api

import (
	"errors"

	"PulseWatch/internal/domain/models"
	"PulseWatch/internal/usecase"
	xhttp "PulseWatch/pkg/http"
	xlogger "PulseWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EngineHandler exposes the analysis engine over HTTP.
type EngineHandler struct {
	logger *xlogger.Logger
	orch   *usecase.Orchestrator
}

func NewEngineHandler(logger *xlogger.Logger, orch *usecase.Orchestrator) *EngineHandler {
	return &EngineHandler{logger: logger, orch: orch}
}

func (h *EngineHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/results", h.Results)
	g.GET("/results/:id", h.Result)
	g.GET("/alerts", h.Alerts)
	g.POST("/rules", h.CreateRule)
	g.DELETE("/rules/:id", h.DeleteRule)
	g.POST("/instruments", h.AddInstrument)
	g.DELETE("/instruments/:id", h.RemoveInstrument)
}

// Status returns a point-in-time engine summary.
func (h *EngineHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.GetStatus())
}

// Results returns the latest analysis result for every instrument.
func (h *EngineHandler) Results(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.GetAllResults())
}

// Result returns the latest analysis result for one instrument.
func (h *EngineHandler) Result(c echo.Context) error {
	id := c.Param("id")
	res, err := h.orch.GetResult(id)
	if err != nil {
		if errors.Is(err, usecase.ErrInstrumentNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no result for instrument %q", id))
		}
		h.logger.Error("get result error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Alerts returns retained alerts, optionally filtered by severity and a
// "since" timestamp (RFC3339 or unix seconds).
func (h *EngineHandler) Alerts(c echo.Context) error {
	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	alerts := h.orch.GetActiveAlerts(models.Severity(req.Severity), req.Limit)
	if since, ok := xhttp.ParseTime(c.QueryParam("since")); ok {
		filtered := alerts[:0]
		for _, a := range alerts {
			if !a.Timestamp.Before(since) {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}

// CreateRule registers a user alert rule.
func (h *EngineHandler) CreateRule(c echo.Context) error {
	req := &models.RuleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rule := models.AlertRule{
		RuleID:         req.RuleID,
		Instrument:     req.Instrument,
		Condition:      req.Condition,
		Severity:       models.Severity(req.Severity),
		Message:        req.Message,
		ActionRequired: req.ActionRequired,
	}
	if err := h.orch.RegisterRule(rule); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	h.logger.Info("alert rule registered",
		xlogger.String("rule_id", rule.RuleID),
		xlogger.String("instrument", rule.Instrument),
	)
	return xhttp.CreatedResponse(c, rule)
}

// DeleteRule removes a user alert rule.
func (h *EngineHandler) DeleteRule(c echo.Context) error {
	id := c.Param("id")
	if !h.orch.UnregisterRule(id) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("rule %q not found", id))
	}
	return xhttp.NoContentResponse(c)
}

// AddInstrument adds an instrument to the active set.
func (h *EngineHandler) AddInstrument(c echo.Context) error {
	req := &models.InstrumentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	h.orch.AddInstrument(req.InstrumentID)
	return xhttp.CreatedResponse(c, req)
}

// RemoveInstrument drops an instrument from the active set.
func (h *EngineHandler) RemoveInstrument(c echo.Context) error {
	id := c.Param("id")
	if !h.orch.RemoveInstrument(id) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("instrument %q not active", id))
	}
	return xhttp.NoContentResponse(c)
}
