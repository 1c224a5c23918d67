package telephony

import (
	"fmt"
	"net/http"
	"net/url"

	"amd-webhook/internal/webhook"
)

// ParseWebhookRequest builds the transport-neutral webhook.Request.
// POST reads the form body only and GET reads the query string only, matching
// where Twilio puts parameters for each StatusCallbackMethod.
// Repeated keys keep their first value.
func ParseWebhookRequest(r *http.Request) (webhook.Request, error) {
	var values url.Values
	switch r.Method {
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			return webhook.Request{}, err
		}
		values = r.PostForm
	case http.MethodGet:
		values = r.URL.Query()
	default:
		return webhook.Request{}, fmt.Errorf("telephony: unsupported method %s", r.Method)
	}

	params := make(webhook.Params, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return webhook.Request{Method: webhook.Method(r.Method), Params: params}, nil
}
