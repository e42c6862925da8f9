package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIPGeneric(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		xff     string
		trusted []string
		want    string
	}{
		{"direct remote", "203.0.113.5:54321", "", nil, "203.0.113.5"},
		{"trusted proxy uses first forwarded", "198.51.100.10:443", "203.0.113.7, 198.51.100.10", []string{"198.51.100.10"}, "203.0.113.7"},
		{"trusted cidr", "198.51.100.42:443", "203.0.113.9", []string{"198.51.100.0/24"}, "203.0.113.9"},
		{"untrusted proxy ignores forwarded", "198.51.100.11:443", "203.0.113.8, 198.51.100.11", []string{"198.51.100.10"}, "198.51.100.11"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.local/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if ip := clientIPGeneric(req, tc.trusted); ip != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, ip)
			}
		})
	}
}

func TestSlideDropsExpired(t *testing.T) {
	now := time.Now().UnixNano()
	window := 10 * time.Second
	arr := timestamps{now - int64(20*time.Second), now - int64(5*time.Second)}

	got := slide(arr, now, window)
	if len(got) != 2 || got[0] != arr[1] || got[1] != now {
		t.Fatalf("expected the recent entry plus now, got %v", got)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Now().UnixNano()
	window := time.Minute
	cases := []struct {
		name string
		arr  timestamps
		want int
	}{
		{"empty window", nil, 60},
		{"oldest decides", timestamps{now - int64(15*time.Second), now - int64(50*time.Second)}, 10},
		{"at least one second", timestamps{now - int64(time.Minute)}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryAfterSeconds(tc.arr, now, window); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestPenaltyEscalates(t *testing.T) {
	want := []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute, 30 * time.Minute, 30 * time.Minute}
	for i, w := range want {
		if got := penaltyFor(i + 1); got != w {
			t.Fatalf("level %d: expected %s, got %s", i+1, w, got)
		}
	}
}

func TestWebhookLimiter(t *testing.T) {
	l := NewWebhookLimiter(1, time.Minute, []string{"10.0.0.9"})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v3/events/messages", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := send("203.0.113.1:1000"); rr.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rr.Code)
	}
	rr := send("203.0.113.1:1001")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	for i := 0; i < 3; i++ {
		if rr := send("10.0.0.9:2000"); rr.Code != http.StatusOK {
			t.Fatalf("whitelisted caller should never be limited, got %d", rr.Code)
		}
	}
}
