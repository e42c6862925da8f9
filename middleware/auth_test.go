package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/utils"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSharedSecretMiddleware(t *testing.T) {
	h := SharedSecretMiddleware("hook-secret")(okHandler())
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer hook-secret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v3/events/messages", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestSharedSecretMiddleware_Disabled(t *testing.T) {
	rr := httptest.NewRecorder()
	SharedSecretMiddleware("")(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rr.Code)
	}
}

func stubAdmins(t *testing.T, admins map[int64]*models.Admin) {
	t.Helper()
	prev := lookupAdmin
	lookupAdmin = func(id int64) (*models.Admin, error) {
		if a, ok := admins[id]; ok {
			return a, nil
		}
		return nil, errors.New("record not found")
	}
	t.Cleanup(func() { lookupAdmin = prev })
}

func TestAdminAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("JWT_AUD", "")
	t.Setenv("JWT_ISS", "")
	stubAdmins(t, map[int64]*models.Admin{
		1: {ID: 1, Username: "ops", IsActive: true},
		2: {ID: 2, Username: "gone", IsActive: false},
	})

	var seen int64
	h := AdminAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(utils.AdminIDKey).(int64)
		w.WriteHeader(http.StatusOK)
	}))

	token := func(id int64, role string) string {
		tok, err := utils.GenerateJWT(id, "ops", role)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		return "Bearer " + tok
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"not admin role", token(1, "user"), http.StatusForbidden},
		{"unknown admin", token(9, "admin"), http.StatusUnauthorized},
		{"inactive admin", token(2, "admin"), http.StatusForbidden},
		{"active admin", token(1, "admin"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = 0
			req := httptest.NewRequest(http.MethodGet, "/v3/magic-word-requests", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
			if tc.want == http.StatusOK && seen != 1 {
				t.Fatalf("expected admin id 1 in context, got %d", seen)
			}
		})
	}
}

func TestLoginLockoutLocalFallback(t *testing.T) {
	const user = "Lockout-Test"
	t.Cleanup(func() { ResetFailedLogin(user) })

	if locked, _ := IsAccountLocked(user); locked {
		t.Fatal("fresh account should not be locked")
	}
	RecordFailedLogin(user)
	locked, remaining := IsAccountLocked(" lockout-test ")
	if !locked {
		t.Fatal("expected lock after a failed login")
	}
	if remaining <= 0 || remaining > penaltyFor(1) {
		t.Fatalf("unexpected lock duration %s", remaining)
	}
	ResetFailedLogin(user)
	if locked, _ := IsAccountLocked(user); locked {
		t.Fatal("reset should clear the lock")
	}
}

func TestAdminRateLimiterPenalty(t *testing.T) {
	l := NewAdminRateLimiter(2, 1, 60)
	call := func(method string) int {
		req := httptest.NewRequest(method, "/v3/magic-word-requests", strings.NewReader("{}"))
		req = req.WithContext(context.WithValue(req.Context(), utils.AdminIDKey, int64(5)))
		rr := httptest.NewRecorder()
		l.Middleware(okHandler()).ServeHTTP(rr, req)
		return rr.Code
	}
	if call(http.MethodPost) != http.StatusOK {
		t.Fatal("first write should pass")
	}
	if code := call(http.MethodPost); code != http.StatusTooManyRequests {
		t.Fatalf("second write should be limited, got %d", code)
	}
	// reads use their own bucket
	if code := call(http.MethodGet); code != http.StatusOK {
		t.Fatalf("read should pass, got %d", code)
	}
}

func TestMaxBodyMiddlewareSkipsUploads(t *testing.T) {
	t.Setenv("MAX_BODY_BYTES", "4")
	var readErr error
	h := MaxBodyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, readErr = r.Body.Read(buf)
		for readErr == nil {
			_, readErr = r.Body.Read(buf)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v3/chats/c1/toggle-interaction", strings.NewReader("0123456789")))
	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Fatalf("expected MaxBytesError, got %v", readErr)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v3/uploads/image", strings.NewReader("0123456789")))
	if readErr.Error() != "EOF" {
		t.Fatalf("upload route should not be capped, got %v", readErr)
	}
}
