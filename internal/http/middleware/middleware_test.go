package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultErrorWriter = io.Discard
	logger.Discard()
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, response.Envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env response.Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

type stubTokens struct{}

func (stubTokens) ParseAccess(token string) (entity.ActorIdentity, error) {
	if token == "good" {
		return entity.NewActorIdentity(7, "buyer"), nil
	}
	return entity.ActorIdentity{}, errors.New("bad token")
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(stubTokens{}), func(c *gin.Context) {
		actor, ok := Actor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.UserID})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w, env := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", env.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w, _ = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w, _ = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
}

func TestIDValidator(t *testing.T) {
	r := gin.New()
	r.GET("/orders/:id", IDValidator("id"), func(c *gin.Context) {
		id, _ := ParamID(c, "id")
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for _, bad := range []string{"abc", "0", "-5", "9999999999999999999999"} {
		w, env := serve(r, httptest.NewRequest(http.MethodGet, "/orders/"+bad, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Equal(t, "validation_error", env.Code, bad)
		assert.Contains(t, env.Details, "id", bad)
	}

	w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/orders/15", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":15}`, w.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", env.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("nil map") })

	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", env.Code)
	assert.NotContains(t, env.Error, "nil map")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(RequestIDHeader, "3f1f5a9e-8d53-4a0c-9a47-6f3e0d1f2b11")
	w, _ = serve(r, req)
	assert.Equal(t, "3f1f5a9e-8d53-4a0c-9a47-6f3e0d1f2b11", w.Header().Get(RequestIDHeader))
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) { _ = c.Error(errors.New("sql: no rows")) })

	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", env.Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w, _ := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w, _ = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type observed struct {
	method, path string
	status       int
}

type fakeObserver struct{ calls []observed }

func (f *fakeObserver) ObserveHTTP(method, path string, status int, _ time.Duration) {
	f.calls = append(f.calls, observed{method, path, status})
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	obs := &fakeObserver{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/orders/5", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Len(t, obs.calls, 2)
	assert.Equal(t, observed{"GET", "/orders/:id", 200}, obs.calls[0])
	assert.Equal(t, observed{"GET", "unmatched", 404}, obs.calls[1])
}
