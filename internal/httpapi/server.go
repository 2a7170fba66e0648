// Package httpapi exposes classification results and letters to the
// dashboard as a JSON API.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"procurement-award-notifier/internal/award"
	"procurement-award-notifier/internal/notify"
	"procurement-award-notifier/internal/store"
)

// Pipeline is the part of the service the API calls.
type Pipeline interface {
	Classify(ctx context.Context, procedureID string) (*award.Result, error)
	Notifications(ctx context.Context, procedureID string) (notify.Batch, error)
	StoredNotifications(ctx context.Context, procedureID string) ([]store.Notification, error)
	Export(ctx context.Context, procedureID string, w io.Writer) (int, error)
}

// Server wires the pipeline to gin routes.
type Server struct {
	pipeline Pipeline
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewServer creates a server whose exports are limited to perMinute
// requests with the given burst.
func NewServer(pipeline Pipeline, perMinute float64, burst int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline: pipeline,
		limiter:  rate.NewLimiter(rate.Limit(perMinute/60), burst),
		logger:   logger,
	}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	procedures := r.Group("/procedures/:id")
	procedures.GET("/classification", s.classification)
	procedures.POST("/notifications", s.generateNotifications)
	procedures.GET("/notifications", s.storedNotifications)
	procedures.GET("/export.zip", s.rateLimit(), s.export)
	return r
}

func (s *Server) classification(c *gin.Context) {
	id := c.Param("id")
	result, err := s.pipeline.Classify(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"procedure_id": id,
		"summary":      award.Summarize(result),
		"result":       result,
	})
}

// generateNotifications rebuilds the letters of a procedure and replaces the
// stored records.
func (s *Server) generateNotifications(c *gin.Context) {
	id := c.Param("id")
	batch, err := s.pipeline.Notifications(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"procedure_id": id,
		"count":        batch.Len(),
		"attributions": batch.Attributions,
		"rejections":   batch.Rejections,
		"awards":       batch.Awards,
	})
}

func (s *Server) storedNotifications(c *gin.Context) {
	id := c.Param("id")
	records, err := s.pipeline.StoredNotifications(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"procedure_id":  id,
		"count":         len(records),
		"notifications": records,
	})
}

func (s *Server) export(c *gin.Context) {
	id := c.Param("id")
	var buf bytes.Buffer
	count, err := s.pipeline.Export(c.Request.Context(), id, &buf)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="notifications_%s.zip"`, id))
	c.Header("X-Document-Count", strconv.Itoa(count))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		reservation := s.limiter.Reserve()
		if !reservation.OK() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "export rate limit exceeded"})
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "export rate limit exceeded",
				"retry_after": int(math.Ceil(delay.Seconds())),
			})
			return
		}
		c.Next()
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("Request failed", "path", c.FullPath(), "procedure_id", c.Param("id"), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
