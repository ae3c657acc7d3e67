package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsEngine(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if mw := CORS(origins); mw != nil {
		r.Use(mw)
	}
	r.GET("/v1/calldata", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS_NoOriginsDisabled(t *testing.T) {
	if CORS(nil) != nil {
		t.Fatalf("expected nil middleware")
	}
}

func TestCORS_AllowedOriginPreflight(t *testing.T) {
	r := corsEngine([]string{"https://dash.example"})

	req := httptest.NewRequest(http.MethodOptions, "/v1/calldata", nil)
	req.Header.Set("Origin", "https://dash.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestCORS_UnknownOriginForbidden(t *testing.T) {
	r := corsEngine([]string{"https://dash.example"})

	req := httptest.NewRequest(http.MethodGet, "/v1/calldata", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
