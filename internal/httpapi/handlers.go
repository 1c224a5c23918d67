package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"amd-webhook/internal/auth"
	"amd-webhook/internal/calls"
	"amd-webhook/internal/dispatch"
	"amd-webhook/internal/events"
	"amd-webhook/internal/reporting"
	"amd-webhook/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the operator API handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Events    *events.Service
	Calls     calls.Store
	Reporting *reporting.Service

	Now func() time.Time
}

// ListEvents returns journaled webhooks, newest first.
// Query: call_sid (optional), limit (optional, capped).
func (h Handlers) ListEvents(c *gin.Context) {
	if h.Events == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "journal not configured"})
		return
	}

	f := events.Filter{CallSID: c.Query("call_sid")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		f.Limit = n
	}

	evs, err := h.Events.List(c.Request.Context(), f)
	if err != nil {
		requestLogger(c).Error("list events failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": evs, "count": len(evs)})
}

// GetCall returns the merged state of one call.
func (h Handlers) GetCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call state not configured"})
		return
	}

	sid := c.Param("call_sid")
	if sid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_sid required"})
		return
	}

	st, err := h.Calls.Get(c.Request.Context(), sid)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		requestLogger(c).Error("get call failed", "call_sid", sid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	body := gin.H{"call": st}
	if secs, err := dispatch.AMDDurationSeconds(st.AMDDurationMS); err == nil {
		body["amd_duration_seconds"] = secs
	}
	c.JSON(http.StatusOK, body)
}

// defaultReportWindow applies when the caller gives no from.
const defaultReportWindow = 24 * time.Hour

// AMDSummary aggregates detection outcomes over a time range.
// Query: from, to (RFC3339, optional). Defaults to the last 24h.
func (h Handlers) AMDSummary(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	to, err := parseTimeQuery(c, "to", now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return
	}
	from, err := parseTimeQuery(c, "from", to.Add(-defaultReportWindow))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return
	}

	out, err := h.Reporting.AMDSummary(c.Request.Context(), reporting.AMDSummaryRequest{
		Range: reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
			return
		}
		requestLogger(c).Error("amd summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func parseTimeQuery(c *gin.Context, key string, def time.Time) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// requestLogger tags the request logger with the authenticated operator.
func requestLogger(c *gin.Context) *slog.Logger {
	l := logger.FromGin(c)
	if sub, err := auth.Subject(c.Request.Context()); err == nil {
		l = l.With("operator", sub)
	}
	return l
}
