package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/auth"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/config"
	"github.com/gin-gonic/gin"
)

func newAuthTestRouter(t *testing.T, cfg config.AuthConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(cfg, nil), RBAC(cfg))
	r.GET("/admin-only", func(c *gin.Context) {
		ai, ok := AuthFromContext(c)
		if !ok {
			c.JSON(500, gin.H{"error": "missing auth info"})
			return
		}
		c.JSON(200, gin.H{"subject": ai.Subject})
	})
	r.GET("/open", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/public", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return r
}

func TestJWTAuthAndRBAC(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:     true,
		JWTSecret:   "test-secret",
		Issuer:      "smartfleetpass",
		Audience:    "smartfleetpass",
		PublicPaths: []string{"/public"},
		RBAC: map[string][]string{
			"/admin-only": {"admin"},
		},
	}
	r := newAuthTestRouter(t, cfg)

	token, _, err := auth.GenerateAccessToken(cfg, "u-1", []string{"user", "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	// 带 admin 角色的 token 可以访问 admin-only
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	// 没有 token 直接 401
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// 公开路径无需 token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/public", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on public path, got %d", w.Code)
	}
}

func TestRBACRejectsMissingRole(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "smartfleetpass",
		Audience:  "smartfleetpass",
		RBAC: map[string][]string{
			"/admin-only": {"admin"},
		},
	}
	r := newAuthTestRouter(t, cfg)

	token, _, err := auth.GenerateAccessToken(cfg, "u-2", []string{"user"}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
