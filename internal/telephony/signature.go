package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"amd-webhook/pkg/logger"

	"github.com/gin-gonic/gin"
)

const headerTwilioSignature = "X-Twilio-Signature"

// RequireSignature validates X-Twilio-Signature on provider webhooks.
//
// publicBaseURL is the externally visible origin (e.g. the tunnel URL). When
// empty the URL is rebuilt from the request, honoring X-Forwarded-Proto.
func RequireSignature(authToken, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		sig := strings.TrimSpace(c.GetHeader(headerTwilioSignature))
		if sig == "" {
			log.Warn("twilio signature missing", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing signature"})
			return
		}

		var params url.Values
		if c.Request.Method == http.MethodPost {
			if err := c.Request.ParseForm(); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
				return
			}
			params = c.Request.PostForm
		}

		want := ComputeSignature(authToken, RequestURL(c.Request, publicBaseURL), params)
		if !hmac.Equal([]byte(sig), []byte(want)) {
			log.Warn("twilio signature mismatch", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

// ComputeSignature returns base64(HMAC-SHA1(authToken, url + sorted key/value pairs)).
// params is nil for GET callbacks, whose parameters are already part of the URL.
func ComputeSignature(authToken, fullURL string, params url.Values) string {
	var b strings.Builder
	b.WriteString(fullURL)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vs := append([]string(nil), params[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// RequestURL reconstructs the URL Twilio signed.
func RequestURL(r *http.Request, publicBaseURL string) string {
	if base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"); base != "" {
		return base + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
