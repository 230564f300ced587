package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nitesh/cafe_service/internal/logger"
	"github.com/nitesh/cafe_service/internal/places"
	"github.com/nitesh/cafe_service/internal/service"
	"github.com/nitesh/cafe_service/internal/store"
	"github.com/nitesh/cafe_service/pkg/models"
)

// CafeService is the part of service.Service the handlers call.
type CafeService interface {
	Import(ctx context.Context, query string) (*service.ImportResult, error)
	Preview(ctx context.Context, query string) ([]*models.Cafe, error)
	Get(ctx context.Context, id string) (*models.Cafe, error)
	GetMany(ctx context.Context, ids []string) ([]*models.Cafe, error)
	List(ctx context.Context, limit int) ([]*models.Cafe, error)
	Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Cafe, error)
}

type Handler struct {
	svc    CafeService
	logger logger.Logger
}

func NewHandler(svc CafeService, log logger.Logger) *Handler {
	return &Handler{svc: svc, logger: log.With(map[string]interface{}{"component": "api"})}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", h.Banner)
	r.GET("/api/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.GET("/cafes", h.List)
		v1.GET("/cafes/nearby", h.Nearby)
		v1.GET("/cafes/:id", h.Get)
		v1.POST("/cafes/import", h.Import)
		v1.GET("/places/search", h.Search)
	}
}

// Banner: GET /
func (h *Handler) Banner(c *gin.Context) {
	c.String(http.StatusOK, "Cafe Service API is running")
}

// Health: GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type importRequest struct {
	Query string `json:"query"`
}

// Import: POST /v1/cafes/import
// Body: {"query": "coffee shops in Atlanta"}
func (h *Handler) Import(c *gin.Context) {
	var req importRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	res, err := h.svc.Import(c.Request.Context(), req.Query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"meta": gin.H{
			"query": res.Query,
			"found": res.Found,
			"saved": res.Saved,
		},
		"data": res.Cafes,
	})
}

// Search: GET /v1/places/search?q=...
// Provider preview, nothing is stored.
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	res, err := h.svc.Preview(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{
			"query": q,
			"count": len(res),
		},
		"data": res,
	})
}

// List: GET /v1/cafes?limit=50 or GET /v1/cafes?ids=a,b
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("ids"); raw != "" {
		res, err := h.svc.GetMany(ctx, splitIDs(raw))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"meta": gin.H{"count": len(res)},
			"data": res,
		})
		return
	}

	lim := parseLimit(c.DefaultQuery("limit", "50"))
	res, err := h.svc.List(ctx, lim)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{
			"count": len(res),
			"limit": lim,
		},
		"data": res,
	})
}

// Get: GET /v1/cafes/:id
func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	cafe, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cafe})
}

// Nearby: GET /v1/cafes/nearby?lat=33.75&lon=-84.39&radius=5&limit=20
func (h *Handler) Nearby(c *gin.Context) {
	q := c.Request.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	radius, radiusErr := strconv.ParseFloat(q.Get("radius"), 64)
	limit := parseLimit(c.DefaultQuery("limit", "20"))

	if latErr != nil || lonErr != nil || radiusErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing lat/lon/radius parameters"})
		return
	}
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 || radius <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat/lon/radius values"})
		return
	}

	results, err := h.svc.Nearby(c.Request.Context(), lat, lon, radius, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{
			"count":     len(results),
			"radius_km": radius,
			"limit":     limit,
		},
		"data": results,
	})
}

// fail maps service errors onto status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrEmptyQuery):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrProviderDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, places.ErrProviderUnavailable):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed", map[string]interface{}{
			"path":   c.FullPath(),
			"status": status,
		})
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// parseLimit ensures a sane integer limit, with bounds
func parseLimit(s string) int {
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		return 10
	}
	if l > 200 {
		return 200
	}
	return l
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
