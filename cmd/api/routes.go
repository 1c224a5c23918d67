package main

import (
	"database/sql"
	"net/http"
	"time"

	"amd-webhook/internal/auth"
	"amd-webhook/internal/config"
	"amd-webhook/internal/httpapi"
	"amd-webhook/internal/profile"
	"amd-webhook/internal/rbac"
	"amd-webhook/internal/reporting"
	"amd-webhook/internal/telephony"
	"amd-webhook/pkg/logger"
	"amd-webhook/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	Telephony telephony.Handlers
	Twilio    config.TwilioConfig

	// Auth is nil when no journal or call-state backend is enabled; /v1 is then not registered.
	Auth *auth.Manager

	DB    *sql.DB
	Redis *redis.Client
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	h := d.Telephony

	// public
	r.GET("/healthz", healthz(d.DB, d.Redis))
	r.GET("/", h.Home)
	r.GET(profile.EndpointStatus, h.Status)

	// Provider webhooks. Both methods are accepted so either Twilio webhook
	// method setting works; anything else is a 405.
	hooks := r.Group("")
	if d.Twilio.AuthToken != "" {
		hooks.Use(telephony.RequireSignature(d.Twilio.AuthToken, d.Twilio.PublicBaseURL))
	}
	webhookHandlers := []struct {
		path string
		fn   gin.HandlerFunc
	}{
		{profile.EndpointWebhook, h.Webhook},
		{profile.EndpointHandleAMD, h.HandleAMD},
		{profile.EndpointSilent, h.Silent},
	}
	for _, wh := range webhookHandlers {
		if !h.Profile.Serves(wh.path) {
			continue
		}
		hooks.GET(wh.path, wh.fn)
		hooks.POST(wh.path, wh.fn)
	}

	if d.Auth == nil {
		return
	}

	// operator API
	api := httpapi.Handlers{Events: h.Journal, Calls: h.Calls}
	if h.Journal != nil {
		api.Reporting = reporting.NewService(h.Journal)
	}
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.Auth))
	v1.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleAdmin))
	{
		if h.Journal != nil {
			v1.GET("/events", api.ListEvents)
			v1.GET("/reports/amd", api.AMDSummary)
		}
		if h.Calls != nil {
			v1.GET("/calls/:call_sid", api.GetCall)
		}
	}
}

func healthz(db *sql.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if db != nil {
			if err := utils.PingPostgres(ctx, db, 2*time.Second); err != nil {
				logger.FromGin(c).Warn("healthz postgres", "err", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": "unreachable"})
				return
			}
		}
		if rdb != nil {
			if err := utils.PingRedis(ctx, rdb, 2*time.Second); err != nil {
				logger.FromGin(c).Warn("healthz redis", "err", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
