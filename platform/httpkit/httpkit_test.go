package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brokerage_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type staticJWT string

func (s staticJWT) GetJWTAccessSecret() string { return string(s) }

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	userID := uuid.New()
	r := gin.New()
	r.GET("/me", AuthRequired(staticJWT("secret")), func(c *gin.Context) {
		id := MustGetIdentity(c)
		OK(c, "ok", gin.H{"id": id.UserID().String(), "broker": id.HasRole(RoleBroker)})
	})

	token := signToken(t, "secret", jwt.MapClaims{
		"sub":   userID.String(),
		"roles": []string{RoleBroker},
		"type":  "access",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	data, _ := env.Data.(map[string]any)
	if data["id"] != userID.String() || data["broker"] != true {
		t.Fatalf("unexpected identity payload: %v", env.Data)
	}
}

func TestAuthRequiredRejectsRefreshToken(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthRequired(staticJWT("secret")), func(c *gin.Context) { OK(c, "ok", nil) })

	token := signToken(t, "secret", jwt.MapClaims{"sub": uuid.NewString(), "type": "refresh"})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", apperr.NotFound("lead not found"), http.StatusNotFound, "lead not found"},
		{"reference", apperr.Reference("toBroker not found"), http.StatusBadRequest, "toBroker not found"},
		{"conflict", apperr.ConflictFields("duplicate", "customerEmail"), http.StatusConflict, "duplicate"},
		{"internal hides cause", apperr.Internal("failed to load lead").WithErr(errors.New("pq: secret")), http.StatusInternalServerError, msgInternalError},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, msgInternalError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			if !HandleError(c, tc.err) {
				t.Fatal("expected error to be handled")
			}
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Success || env.Message != tc.message {
				t.Fatalf("unexpected envelope: %+v", env)
			}
		})
	}
}

func TestHandleErrorConflictCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	HandleError(c, apperr.ConflictFields("customer email or phone already used by another lead", "customerEmail", "customerPhone"))

	env := decodeEnvelope(t, rec)
	details, _ := env.Details.(map[string]any)
	fields, _ := details["fields"].([]any)
	if len(fields) != 2 || fields[0] != "customerEmail" {
		t.Fatalf("expected conflict fields, got %v", env.Details)
	}
}

func TestRequireRoleForbidsOthers(t *testing.T) {
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set(ContextUserIDKey, uuid.New())
		c.Set(ContextRolesKey, []string{RoleBroker})
	}, RequireRole(RoleAdmin), func(c *gin.Context) { OK(c, "ok", nil) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthRequiredAcceptsSingleRoleString(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthRequired(staticJWT("secret")), RequireRole(RoleAdmin), func(c *gin.Context) { OK(c, "ok", nil) })

	token := signToken(t, "secret", jwt.MapClaims{"sub": uuid.NewString(), "roles": RoleAdmin, "type": "access"})
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequiredRejectsWrongAlgorithm(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthRequired(staticJWT("secret")), func(c *gin.Context) { OK(c, "ok", nil) })

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": uuid.NewString(), "type": "access"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestIPRateLimiterSweepsIdleClients(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Second), 1, nil)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	limiter.getLimiter("10.0.0.1")
	limiter.getLimiter("10.0.0.2")

	clock = clock.Add(rateLimiterIdleTTL / 2)
	limiter.getLimiter("10.0.0.2")

	clock = clock.Add(rateLimiterIdleTTL / 2)
	limiter.getLimiter("10.0.0.3")

	if _, ok := limiter.limiters["10.0.0.1"]; ok {
		t.Fatal("expected idle client to be evicted")
	}
	if len(limiter.limiters) != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", len(limiter.limiters))
	}
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Hour), 1, nil)
	router := gin.New()
	router.Use(limiter.RateLimit())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.9:5000"
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 429], got %v", codes)
	}
}
