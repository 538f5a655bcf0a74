package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	models "SentiPulse/internal/domain/models"
	domrepo "SentiPulse/internal/domain/repository"
	"SentiPulse/internal/service/sentiment"
	"SentiPulse/internal/usecase"
	xhttp "SentiPulse/pkg/http"
	xlogger "SentiPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SentimentEchoHandler exposes the sentiment pipeline over HTTP.
type SentimentEchoHandler struct {
	logger     *xlogger.Logger
	ingestor   *usecase.Ingestor
	aggregator *usecase.Aggregator
	forecaster *usecase.Forecaster
	store      HealthChecker
	cache      HealthChecker
}

func NewSentimentEchoHandler(
	logger *xlogger.Logger,
	ingestor *usecase.Ingestor,
	aggregator *usecase.Aggregator,
	forecaster *usecase.Forecaster,
	store HealthChecker,
	cache HealthChecker,
) *SentimentEchoHandler {
	return &SentimentEchoHandler{
		logger:     logger,
		ingestor:   ingestor,
		aggregator: aggregator,
		forecaster: forecaster,
		store:      store,
		cache:      cache,
	}
}

func (h *SentimentEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/sentiment/recent", h.Recent)
	g.POST("/sentiment/analyze", h.Analyze)
	g.POST("/sentiment/batch", h.AnalyzeBatch)
	g.GET("/analytics/historical", h.Historical)
	g.GET("/analytics/trends", h.Trends)
	g.GET("/predictions/sentiment", h.Predictions)
	g.GET("/predictions/alerts", h.Alerts)
	e.GET("/health", h.Health)
}

func (h *SentimentEchoHandler) Recent(c echo.Context) error {
	req := &models.RecentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	source := domrepo.NormalizeSource(req.Source)

	records := h.ingestor.FetchRecent(c.Request().Context(), string(source), req.Keywords, req.Limit)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, records)
}

func (h *SentimentEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, err := h.ingestor.AnalyzeText(c.Request().Context(), req.Text, req.Source)
	if err != nil {
		var malformed *sentiment.MalformedScoreError
		if errors.As(err, &malformed) {
			return xhttp.AppErrorResponse(c, xhttp.UnprocessableError(malformed.Error()).WithError(err))
		}
		h.logger.Error("analyze usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *SentimentEchoHandler) AnalyzeBatch(c echo.Context) error {
	req := &models.BatchAnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	batch := h.ingestor.AnalyzeBatch(c.Request().Context(), req.Texts, req.Source)
	return xhttp.SuccessResponse(c, batch)
}

func (h *SentimentEchoHandler) Historical(c echo.Context) error {
	req := &models.HistoricalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	buckets, err := h.aggregator.Historical(c.Request().Context(), req.Days, req.Source)
	if err != nil {
		h.logger.Error("historical usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, buckets)
}

func (h *SentimentEchoHandler) Trends(c echo.Context) error {
	req := &models.TrendsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.aggregator.Trends(c.Request().Context(), req.Days, req.Source)
	if err != nil {
		h.logger.Error("trends usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, report)
}

func (h *SentimentEchoHandler) Predictions(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	points := h.forecaster.Forecast(c.Request().Context(), req.Days)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, points)
}

func (h *SentimentEchoHandler) Alerts(c echo.Context) error {
	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alerts := h.forecaster.Alerts(c.Request().Context(), req.Days)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// Health reports component readiness. Degraded components do not fail the
// endpoint; they are reported in the payload.
func (h *SentimentEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	components := map[string]string{}
	status := http.StatusOK
	check := func(name string, hc HealthChecker) {
		if hc == nil {
			components[name] = "disabled"
			return
		}
		if err := hc.Health(ctx); err != nil {
			components[name] = "unavailable"
			status = http.StatusServiceUnavailable
			return
		}
		components[name] = "ok"
	}
	check("store", h.store)
	check("cache", h.cache)

	return c.JSON(status, map[string]interface{}{
		"status":     http.StatusText(status),
		"components": components,
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}
