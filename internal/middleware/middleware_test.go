package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator struct {
	basicErr error
	tokenErr error
}

func (f fakeAuthenticator) AuthenticateBasic(ctx context.Context, user, password string) (dto.Caller, error) {
	if f.basicErr != nil {
		return dto.Caller{}, f.basicErr
	}
	return dto.Caller{UserID: "basic:" + user, Confirmed: true}, nil
}

func (f fakeAuthenticator) AuthenticateToken(ctx context.Context, token string) (dto.Caller, error) {
	if f.tokenErr != nil {
		return dto.Caller{}, f.tokenErr
	}
	return dto.Caller{UserID: "token:" + token, TokenUsed: true}, nil
}

func newAuthRouter(a Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(RequestContext(), NewAuthMiddleware(a).RequireAuth())
	r.GET("/me", func(c *gin.Context) {
		caller := CallerFrom(c)
		c.JSON(http.StatusOK, gin.H{
			"id":      caller.UserID,
			"ctx_uid": ctxutil.GetUserID(c.Request.Context()),
		})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		auth       fakeAuthenticator
		setHeader  func(r *http.Request)
		wantStatus int
		wantID     string
	}{
		{
			name:       "missing header",
			setHeader:  func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "basic",
			setHeader:  func(r *http.Request) { r.SetBasicAuth("a@example.com", "pw") },
			wantStatus: http.StatusOK,
			wantID:     "basic:a@example.com",
		},
		{
			name:       "bearer",
			setHeader:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc.def.ghi") },
			wantStatus: http.StatusOK,
			wantID:     "token:abc.def.ghi",
		},
		{
			name:       "empty bearer",
			setHeader:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			auth:       fakeAuthenticator{tokenErr: domainerrors.ErrTokenExpired},
			setHeader:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer x") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "store down",
			auth:       fakeAuthenticator{basicErr: domainerrors.ErrStoreUnavailable},
			setHeader:  func(r *http.Request) { r.SetBasicAuth("a@example.com", "pw") },
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setHeader(req)
			w := httptest.NewRecorder()
			newAuthRouter(tt.auth).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if tt.wantStatus == http.StatusOK {
				if body["id"] != tt.wantID || body["ctx_uid"] != tt.wantID {
					t.Errorf("body = %v, want id %q", body, tt.wantID)
				}
				return
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if body["message"] != "Invalid credentials" || body["error"] != constants.ErrorClassUnauthorized {
					t.Errorf("body = %v", body)
				}
				if w.Header().Get(constants.HeaderWWWAuth) == "" {
					t.Error("Expected WWW-Authenticate header")
				}
			}
		})
	}
}

func TestRequestContextKeepsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestContext())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.GetRequestID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constants.HeaderXRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "req-42" || w.Header().Get(constants.HeaderXRequestID) != "req-42" {
		t.Errorf("request id = %q / %q, want req-42", w.Body.String(), w.Header().Get(constants.HeaderXRequestID))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.String() == "" {
		t.Error("Expected a generated request id")
	}
}

func TestAccessLogUsesGeneratedRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger.SetLogger(zap.New(core))
	defer logger.SetLogger(nil)

	r := gin.New()
	r.Use(RequestContext())
	r.Use(LoggingMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "fleet-test/1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	generated := w.Header().Get(constants.HeaderXRequestID)
	if generated == "" {
		t.Fatal("Expected a generated request id")
	}
	entries := logs.FilterMessage("HTTP request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != generated {
		t.Errorf("request_id = %v, want %s", fields["request_id"], generated)
	}
	if fields["user_agent"] != "fleet-test/1.0" {
		t.Errorf("user_agent = %v, want fleet-test/1.0", fields["user_agent"])
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rejected := 0
	rl := NewRateLimiter(2, time.Minute).OnRejected(func() { rejected++ })
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1"); code != http.StatusNoContent {
			t.Fatalf("request %d status = %d, want 204", i, code)
		}
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := do("10.0.0.2"); code != http.StatusNoContent {
		t.Errorf("other client status = %d, want 204", code)
	}
	if rejected != 1 {
		t.Errorf("rejected = %d, want 1", rejected)
	}

	now = now.Add(time.Minute)
	if code := do("10.0.0.1"); code != http.StatusNoContent {
		t.Errorf("status after refill = %d, want 204", code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
