package telephony

import (
	"embed"
	"io"
	"net/http"
	"os"
	"time"

	"amd-webhook/internal/calls"
	"amd-webhook/internal/dispatch"
	"amd-webhook/internal/events"
	"amd-webhook/internal/profile"
	"amd-webhook/internal/webhook"
	"amd-webhook/pkg/logger"

	"github.com/gin-gonic/gin"
)

//go:embed pages/*.html
var pages embed.FS

// Handlers serves the provider-facing endpoints for one profile.
//
// No business logic here: requests are converted to webhook.Request,
// the dispatch package decides, and the result is written as TwiML.
//
// Journal and Calls are optional. Writes to them are best-effort and never
// change the response the provider sees.
type Handlers struct {
	Profile    profile.Profile
	Normalizer *webhook.Normalizer
	Reporter   *dispatch.Reporter
	Responder  *dispatch.Responder

	// Out receives the human-readable console reports. Defaults to stdout.
	Out io.Writer

	Journal *events.Service
	Calls   calls.Store

	Now func() time.Time
}

// Webhook reports any callback and answers with an empty TwiML document.
func (h Handlers) Webhook(c *gin.Context) {
	log := logger.FromGin(c)
	now := h.now()

	req, err := ParseWebhookRequest(c.Request)
	if err != nil {
		log.Warn("webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	typ := webhook.Classify(req.Params)
	rec := h.Normalizer.Normalize(req)

	report, err := h.Reporter.Webhook(dispatch.WebhookInput{
		Type:   typ,
		Method: req.Method,
		At:     now,
		Record: rec,
	})
	if err != nil {
		log.Warn("amd duration not numeric", "err", err)
	}
	h.emit(report)

	log.Info("webhook received",
		"type", typ,
		"call_sid", req.Params.Get(webhook.FieldCallSid),
		"fields", len(rec),
	)
	h.record(c, profile.EndpointWebhook, req, typ, rec, now)

	h.writeTwiML(c, dispatch.Empty())
}

// HandleAMD selects a spoken response from the AMD outcome.
func (h Handlers) HandleAMD(c *gin.Context) {
	log := logger.FromGin(c)
	now := h.now()

	req, err := ParseWebhookRequest(c.Request)
	if err != nil {
		log.Warn("amd parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	typ := webhook.Classify(req.Params)
	answeredBy := req.Params.AnsweredBy()
	action := h.Responder.Select(answeredBy)

	h.emit(h.Reporter.AMD(dispatch.AMDInput{
		Type:       typ,
		Method:     req.Method,
		At:         now,
		Params:     req.Params,
		AnsweredBy: answeredBy,
		Action:     action,
	}))

	log.Info("amd handled",
		"call_sid", req.Params.Get(webhook.FieldCallSid),
		"answered_by", answeredBy,
		"answer", dispatch.Interpret(answeredBy).String(),
		"hangup", action.Hangup,
	)
	h.record(c, profile.EndpointHandleAMD, req, typ, h.Normalizer.Normalize(req), now)

	h.writeTwiML(c, action)
}

// Silent keeps the caller quiet so AMD can listen to the callee.
// The request is not inspected.
func (h Handlers) Silent(c *gin.Context) {
	action := dispatch.SilentPause()
	h.emit(h.Reporter.Silent(h.now(), action))
	logger.FromGin(c).Info("silent twiml served", "pause_seconds", action.PauseSeconds)
	h.writeTwiML(c, action)
}

// Status reports server identity and endpoints as JSON.
func (h Handlers) Status(c *gin.Context) {
	body := gin.H{
		"status":    "running",
		"server":    h.Profile.ServerLabel,
		"timestamp": h.now().Format(dispatch.TimestampLayout),
		"endpoints": h.Profile.Endpoints,
		"accepts":   "GET and POST requests",
	}
	if h.Profile.Purpose != "" {
		body["purpose"] = h.Profile.Purpose
	}
	if h.Profile.TestSetup != nil {
		body["test_setup"] = h.Profile.TestSetup
	}
	c.JSON(http.StatusOK, body)
}

// Home serves the static description page for the profile.
func (h Handlers) Home(c *gin.Context) {
	page, err := pages.ReadFile("pages/" + string(h.Profile.Name) + ".html")
	if err != nil {
		logger.FromGin(c).Error("home page missing", "profile", h.Profile.Name, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "page not found"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// emit writes the whole report in a single Write so concurrent reports don't interleave.
func (h Handlers) emit(r dispatch.Report) {
	out := h.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = io.WriteString(out, r.String())
}

func (h Handlers) record(c *gin.Context, endpoint string, req webhook.Request, typ webhook.Type, rec webhook.Record, at time.Time) {
	if h.Journal == nil && h.Calls == nil {
		return
	}
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	if h.Journal != nil {
		ev := events.Event{
			CallSID:     webhook.Decode(req.Params.Get(webhook.FieldCallSid)),
			Type:        typ,
			Endpoint:    endpoint,
			Method:      string(req.Method),
			CallStatus:  webhook.Decode(req.Params.Get(webhook.FieldCallStatus)),
			DetectionMS: webhook.Decode(req.Params.Get(webhook.FieldMachineDetectionDuration)),
			Fields:      map[string]string(rec),
			ReceivedAt:  at,
		}
		if req.Params.Has(webhook.FieldAnsweredBy) || req.Params.Has(webhook.FieldAnsweringMachineDetection) {
			ev.AnsweredBy = webhook.Decode(req.Params.AnsweredBy())
		}
		if _, err := h.Journal.Append(ctx, ev); err != nil {
			log.Warn("webhook journal append failed", "endpoint", endpoint, "err", err)
		}
	}

	if h.Calls != nil {
		st, ok := calls.StateFromParams(req.Params, typ, at)
		if !ok {
			return
		}
		if err := h.Calls.Put(ctx, st); err != nil {
			log.Warn("call state update failed", "call_sid", st.CallSID, "err", err)
		}
	}
}

func (h Handlers) writeTwiML(c *gin.Context, a dispatch.Action) {
	twiml, err := RenderTwiML(a)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
