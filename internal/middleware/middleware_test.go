package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"movierama/internal/metrics"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(trustHeader bool) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("secret"))))
	r.Use(RequestID(), LoadViewer(trustHeader))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"viewer": ViewerID(c)})
	})
	r.GET("/secured", AuthRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/login/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, c.Param("id"))
		_ = s.Save()
		c.Status(http.StatusOK)
	})
	return r
}

func TestLoadViewer_Header(t *testing.T) {
	trusted := newEngine(true)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(UserIDHeader, "42")
	trusted.ServeHTTP(w, req)
	assert.JSONEq(t, `{"viewer":42}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	untrusted := newEngine(false)
	w = httptest.NewRecorder()
	untrusted.ServeHTTP(w, req)
	assert.JSONEq(t, `{"viewer":0}`, w.Body.String())
}

func TestLoadViewer_Session(t *testing.T) {
	r := newEngine(false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/7", nil))
	cookies := w.Result().Cookies()
	assert.NotEmpty(t, cookies)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"viewer":7}`, w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	r := newEngine(true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secured", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthenticated")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secured", nil)
	req.Header.Set(UserIDHeader, "3")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPrometheusAndLogger(t *testing.T) {
	m := metrics.NewHTTPMetrics(prometheus.NewRegistry())
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()), Prometheus(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/items/1", "/items/2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, p, nil)
		req.Header.Set(RequestIDHeader, "fixed")
		r.ServeHTTP(w, req)
		assert.Equal(t, "fixed", w.Header().Get(RequestIDHeader))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/items/:id", "200")))
}
