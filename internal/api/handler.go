// Package api exposes the synchronous HTTP surface.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"CityWatch/internal/clustering"
	"CityWatch/internal/usecase"
)

// Pinger reports backend connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler registers the public routes.
type Handler struct {
	submitter *usecase.Submitter
	clusters  *clustering.Service
	db        Pinger
	stream    Pinger
	logger    *slog.Logger
}

func NewHandler(submitter *usecase.Submitter, clusters *clustering.Service, db, stream Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		submitter: submitter,
		clusters:  clusters,
		db:        db,
		stream:    stream,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.health)

	v1 := r.Group("/v1")
	{
		v1.POST("/complaints", h.submitComplaint)
		v1.POST("/complaints/:id/support", h.supportComplaint)
		v1.GET("/clusters", h.listClusters)
	}
}

type submitBody struct {
	UserID   string   `json:"user_id" binding:"required"`
	Text     string   `json:"text" binding:"required"`
	HasPhoto bool     `json:"has_photo"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
}

func (h *Handler) submitComplaint(c *gin.Context) {
	var body submitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (body.Lat == nil) != (body.Lon == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon must be provided together"})
		return
	}

	res, err := h.submitter.Submit(c.Request.Context(), usecase.SubmitRequest{
		UserID:   body.UserID,
		Text:     body.Text,
		HasPhoto: body.HasPhoto,
		Lat:      body.Lat,
		Lon:      body.Lon,
	})
	switch {
	case errors.Is(err, usecase.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	case errors.Is(err, usecase.ErrEmptySubmission):
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is empty"})
		return
	case err != nil:
		h.logger.Error("submit complaint", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": res.Complaint,
		"meta": gin.H{
			"category":          res.Classification.Category,
			"classify_method":   string(res.Classification.Method),
			"location_accuracy": string(res.Location.Accuracy),
			"location_source":   string(res.Location.Source),
		},
	})
}

func (h *Handler) supportComplaint(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header is required"})
		return
	}

	err := h.submitter.Support(c.Request.Context(), userID, c.Param("id"))
	switch {
	case errors.Is(err, usecase.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	case err != nil:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listClusters(c *gin.Context) {
	clusters, err := h.clusters.Clusters(c.Request.Context())
	if err != nil {
		h.logger.Error("list clusters", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clusters, "meta": gin.H{"count": len(clusters)}})
}

func (h *Handler) health(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{"status": "ok"}
	code := http.StatusOK

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if h.stream != nil {
		if err := h.stream.Ping(ctx); err != nil {
			status["stream"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if code != http.StatusOK {
		status["status"] = "degraded"
	}
	c.JSON(code, status)
}
