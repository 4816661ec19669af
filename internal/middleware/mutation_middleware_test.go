package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eduplat/pkg/auditctx"
	"eduplat/pkg/errors"
	"eduplat/pkg/ratelimit"
	"eduplat/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeBodyRewritesRequest(t *testing.T) {
	r := gin.New()
	var received map[string]interface{}
	r.POST("/items", SanitizeBody(), func(c *gin.Context) {
		require.NoError(t, c.ShouldBindJSON(&received))
		response.Success(c, nil)
	})

	body := `{"name":"<script>alert(1)</script>语文","nested":{"note":"<a href=\"javascript:run()\">x</a>"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "语文", received["name"])
	nested := received["nested"].(map[string]interface{})
	assert.NotContains(t, nested["note"], "javascript:")
}

func TestSanitizeBodyPassesThroughNonJSON(t *testing.T) {
	r := gin.New()
	var received string
	r.POST("/raw", SanitizeBody(), func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		received = string(raw)
		response.Success(c, nil)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/raw", strings.NewReader("plain <script> text"))
	r.ServeHTTP(w, req)

	// 非JSON请求体原样放行
	assert.Equal(t, "plain <script> text", received)
}

func TestAuditContextCarriesActor(t *testing.T) {
	r := gin.New()
	var captured auditctx.Info
	r.Use(func(c *gin.Context) {
		c.Set("user_id", uint(42))
		c.Set("tenant_id", uint(7))
	})
	r.POST("/items", AuditContext(), func(c *gin.Context) {
		captured = auditctx.From(c.Request.Context())
		response.Success(c, nil)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/items", nil)
	req.Header.Set("User-Agent", "eduplat-test/1.0")
	r.ServeHTTP(w, req)

	assert.Equal(t, uint(42), captured.UserID)
	assert.Equal(t, uint(7), captured.TenantID)
	assert.Equal(t, "eduplat-test/1.0", captured.UserAgent)
	assert.NotEmpty(t, captured.RequestID)
	assert.NotEmpty(t, captured.IPAddress)
}

func TestRateLimitPerIdentifier(t *testing.T) {
	limiter := ratelimit.NewLimiter(2, time.Minute)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", uint(1)) })
	r.POST("/items", RateLimit(limiter), func(c *gin.Context) {
		response.Success(c, nil)
	})

	do := func() *envelope {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/items", nil))
		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		return &env
	}

	assert.Equal(t, errors.CodeSuccess, do().Code)
	assert.Equal(t, errors.CodeSuccess, do().Code)
	// 窗口内第三次触发限流
	assert.Equal(t, errors.CodeRateLimited, do().Code)
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	limiter := ratelimit.NewLimiter(1, time.Minute)

	r := gin.New()
	r.POST("/items", RateLimit(limiter), func(c *gin.Context) {
		response.Success(c, nil)
	})

	do := func() *envelope {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/items", nil))
		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		return &env
	}

	assert.Equal(t, errors.CodeSuccess, do().Code)
	assert.Equal(t, errors.CodeRateLimited, do().Code)
}

func TestMutationChainOrder(t *testing.T) {
	limiter := ratelimit.NewLimiter(10, time.Minute)

	r := gin.New()
	var body map[string]interface{}
	var info auditctx.Info
	handlers := append(MutationChain(limiter), func(c *gin.Context) {
		require.NoError(t, c.ShouldBindJSON(&body))
		info = auditctx.From(c.Request.Context())
		response.Success(c, nil)
	})
	r.POST("/items", handlers...)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/items",
		strings.NewReader(`{"name":"<script>x</script>数学"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// 一条链同时完成：清洗过的请求体 + 可追溯的审计上下文
	assert.Equal(t, "数学", body["name"])
	assert.NotEmpty(t, info.RequestID)
}
