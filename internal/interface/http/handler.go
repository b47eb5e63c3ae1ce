package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
)

// Handler wires the HTTP transport to the survey service.
type Handler struct {
	svc    survey.Service
	logger *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svc survey.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With("component", "http.handler"),
	}
}

type categoryScoresBody struct {
	Filters survey.Filters `json:"filters"`
}

type questionScoresBody struct {
	Category string         `json:"category"`
	Filters  survey.Filters `json:"filters"`
	Sort     string         `json:"sort"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListDatasets returns the configured datasets.
func (h *Handler) ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": h.svc.Datasets(c.Request.Context())})
}

// FilterOptions returns the filter vocabularies of a dataset.
func (h *Handler) FilterOptions(c *gin.Context) {
	resp, err := h.svc.FilterOptions(c.Request.Context(), c.Param("dataset"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CategoryScores returns the per-category means under the given filters.
func (h *Handler) CategoryScores(c *gin.Context) {
	var body categoryScoresBody
	if err := bindOptionalJSON(c, &body); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.svc.CategoryScores(c.Request.Context(), survey.CategoryRequest{
		Dataset: c.Param("dataset"),
		Filters: body.Filters,
	})
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// QuestionScores returns the per-question detail of one category.
func (h *Handler) QuestionScores(c *gin.Context) {
	var body questionScoresBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.svc.QuestionScores(c.Request.Context(), survey.QuestionRequest{
		Dataset:  c.Param("dataset"),
		Category: body.Category,
		Filters:  body.Filters,
		Sort:     body.Sort,
	})
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reload drops the cached table and loads the dataset again.
func (h *Handler) Reload(c *gin.Context) {
	status, err := h.svc.Reload(c.Request.Context(), c.Param("dataset"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	h.logger.Info("dataset reload requested", "dataset", status.Dataset, "request_id", requestID(c))
	c.JSON(http.StatusOK, status)
}

// bindOptionalJSON accepts an empty body as the zero value.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}
