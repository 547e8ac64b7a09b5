package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store/memstore"
	"github.com/harentsoaR/reliefnet-api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop(), false))
	r.GET("/api", func(c *gin.Context) { Abort(c, NewError(http.StatusBadRequest, "bad input")) })
	r.GET("/boom", func(c *gin.Context) { Abort(c, errors.New("db exploded")) })
	r.GET("/blocked", func(c *gin.Context) { Abort(c, BlockedError("spam")) })
	r.NoRoute(NotFound)

	w, body := do(r, http.MethodGet, "/api", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad input", body["message"])
	assert.NotContains(t, body, "stack")

	w, body = do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["message"])

	w, body = do(r, http.MethodGet, "/blocked", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, true, body["isBlocked"])
	assert.Equal(t, "spam", body["blockReason"])

	w, _ = do(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorHandlerDevelopmentStack(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop(), true))
	r.GET("/boom", func(c *gin.Context) { Abort(c, Wrap(http.StatusBadGateway, "upstream", errors.New("timeout"))) })

	w, body := do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "upstream: timeout", body["stack"])
}

func TestAuthMiddleware(t *testing.T) {
	ctx := context.Background()
	users := memstore.New().Users
	tokens, err := utils.NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	active := &models.User{ID: primitive.NewObjectID(), Username: "ok", Role: models.RoleNGO, IsApproved: true}
	blocked := &models.User{ID: primitive.NewObjectID(), Username: "bad", Role: models.RolePublic, IsBlocked: true, BlockReason: "abuse"}
	require.NoError(t, users.Create(ctx, active))
	require.NoError(t, users.Create(ctx, blocked))

	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop(), false))
	api := r.Group("/api", AuthMiddleware(tokens, users))
	api.GET("/me", func(c *gin.Context) { c.JSON(http.StatusOK, CurrentUser(c)) })
	api.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w, _ := do(r, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(r, http.MethodGet, "/api/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	okToken, _ := tokens.GenerateJWT(active.ID.Hex(), string(active.Role))
	w, body := do(r, http.MethodGet, "/api/me", okToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["username"])

	w, _ = do(r, http.MethodGet, "/api/admin", okToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	blockedToken, _ := tokens.GenerateJWT(blocked.ID.Hex(), string(blocked.Role))
	w, body = do(r, http.MethodGet, "/api/me", blockedToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "abuse", body["blockReason"])

	ghostToken, _ := tokens.GenerateJWT(primitive.NewObjectID().Hex(), "Admin")
	w, _ = do(r, http.MethodGet, "/api/me", ghostToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type countingLimiter struct {
	limit int
	hits  map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.hits[key]++
	if l.hits[key] > l.limit {
		return false, 90 * time.Second, nil
	}
	return true, 0, nil
}

func (l *countingLimiter) Release(_ context.Context, key string) error {
	l.hits[key]--
	return nil
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{limit: 2, hits: map[string]int{}}

	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop(), false))
	r.POST("/reports", func(c *gin.Context) { c.Set(userIDKey, "u1") }, RateLimit(limiter, "reports"),
		func(c *gin.Context) {
			if c.Query("invalid") != "" {
				Abort(c, NewError(http.StatusBadRequest, "Invalid report"))
				return
			}
			c.Status(http.StatusCreated)
		})

	// rejected creations give their hit back
	for i := 0; i < 3; i++ {
		w, _ := do(r, http.MethodPost, "/reports?invalid=1", "")
		require.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Zero(t, limiter.hits["reports:u1"])

	for i := 0; i < 2; i++ {
		w, _ := do(r, http.MethodPost, "/reports", "")
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, body := do(r, http.MethodPost, "/reports", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "90", w.Header().Get("Retry-After"))
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, 3, limiter.hits["reports:u1"])
}

// Needs a running Redis; set REDIS_ADDRESS to enable.
func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	prefix := "reliefnet-test-ratelimit-" + primitive.NewObjectID().Hex()
	key := prefix + ":create:u1"
	t.Cleanup(func() { rdb.Del(context.Background(), key) })
	l := NewRedisLimiter(rdb, prefix, 2, time.Minute)

	ok, _, err := l.Allow(ctx, "create:u1")
	require.NoError(t, err)
	assert.True(t, ok)
	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, l.Release(ctx, "create:u1"))
	require.NoError(t, l.Release(ctx, "create:u1"))
	n, err := rdb.Get(ctx, key).Int64()
	require.NoError(t, err)
	assert.Zero(t, n, "release never goes below zero")

	for i := 0; i < 2; i++ {
		ok, _, err = l.Allow(ctx, "create:u1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, retryAfter, err := l.Allow(ctx, "create:u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)

	// a counter that lost its TTL gets the window back on the next hit
	require.NoError(t, rdb.Persist(ctx, key).Err())
	_, _, err = l.Allow(ctx, "create:u1")
	require.NoError(t, err)
	ttl, err = rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w, _ := do(r, http.MethodGet, "/x", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
}
