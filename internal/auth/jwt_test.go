package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"amd-webhook/internal/config"

	"github.com/gin-gonic/gin"
)

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "alice", "operator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice" || claims.Role != "operator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute})
	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "alice", "operator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsOtherSecretAndAudience(t *testing.T) {
	now := time.Now()
	a, _ := NewManager(config.AuthConfig{JWTSecret: "a", JWTAudience: "ops"})
	b, _ := NewManager(config.AuthConfig{JWTSecret: "b", JWTAudience: "ops"})
	c, _ := NewManager(config.AuthConfig{JWTSecret: "a", JWTAudience: "other"})

	tok, err := a.Issue(now, "alice", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Verify(tok, now); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	if _, err := c.Verify(tok, now); err == nil {
		t.Fatalf("expected audience mismatch")
	}
}

func TestIssueRequiresSubjectAndRole(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret"})
	if _, err := m.Issue(time.Now(), "", "operator"); err == nil {
		t.Fatalf("expected error without subject")
	}
	if _, err := m.Issue(time.Now(), "alice", ""); err == nil {
		t.Fatalf("expected error without role")
	}
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret"})

	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) {
		sub, _ := Subject(c.Request.Context())
		role, _ := Role(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"subject": sub, "role": role})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	tok, _ := m.Issue(time.Now(), "alice", "operator")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
