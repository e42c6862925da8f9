package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/utils"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// In-memory sliding-window limiters with trusted-proxy support and
// progressive penalties. Login lockout prefers Redis so it holds across
// instances.

type timestamps []int64 // unix nanos

func nowUnix() int64 { return time.Now().UnixNano() }

func getEnvInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return time.Duration(v) * time.Second
		}
	}
	return def
}

func writeTooMany(w http.ResponseWriter, retryAfter int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
		"data":    map[string]interface{}{"retry_after_seconds": retryAfter},
	})
}

// slide drops timestamps older than window, appends now and returns the
// updated slice.
func slide(arr timestamps, now int64, window time.Duration) timestamps {
	cutoff := now - int64(window)
	var filtered timestamps
	for _, ts := range arr {
		if ts >= cutoff {
			filtered = append(filtered, ts)
		}
	}
	return append(filtered, now)
}

// retryAfterSeconds is the time until the oldest request leaves the window.
func retryAfterSeconds(arr timestamps, now int64, window time.Duration) int {
	if len(arr) == 0 {
		return int(window.Seconds())
	}
	oldest := arr[0]
	for _, ts := range arr {
		if ts < oldest {
			oldest = ts
		}
	}
	retry := (oldest + int64(window) - now) / int64(time.Second)
	if retry < 1 {
		return 1
	}
	return int(retry)
}

// IPRateLimiter implements per-IP sliding-window counters.
type IPRateLimiter struct {
	window      time.Duration
	mu          sync.Mutex
	state       map[string]timestamps
	cleanupTick time.Duration
	trustedCIDR []string
	instanceMax int
}

func NewIPRateLimiter(maxReq int, window time.Duration) *IPRateLimiter {
	l := &IPRateLimiter{
		window:      window,
		state:       make(map[string]timestamps),
		cleanupTick: getEnvDuration("RATE_CLEANUP_SECONDS", 60*time.Second),
		instanceMax: maxReq,
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		l.trustedCIDR = strings.Split(v, ",")
	}
	go l.cleanupLoop()
	return l
}

// clientIPGeneric returns the client IP string. X-Forwarded-For and
// X-Real-IP are honored only when the remote address is one of trustedCIDR.
func clientIPGeneric(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, _ := net.SplitHostPort(r.RemoteAddr)
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
				if remoteIP != nil && ipnet.Contains(remoteIP) {
					trusted = true
					break
				}
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && remoteIP != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware applies per-IP limits and sets rate-limit headers.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, l.trustedCIDR)
		now := nowUnix()

		l.mu.Lock()
		filtered := slide(l.state[ip], now, l.window)
		l.state[ip] = filtered
		count := len(filtered)
		l.mu.Unlock()

		limit := l.instanceMax
		if limit <= 0 {
			limit = getEnvInt("RATE_IP_DEFAULT", 200)
		}
		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > limit {
			utils.Logger().Warn("ip rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
			writeTooMany(w, retryAfterSeconds(filtered, now, l.window), "Too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) cleanupLoop() {
	tick := time.NewTicker(l.cleanupTick)
	defer tick.Stop()
	for range tick.C {
		l.mu.Lock()
		cutoff := nowUnix() - int64(l.window)
		for k, arr := range l.state {
			if len(arr) == 0 || arr[len(arr)-1] < cutoff {
				delete(l.state, k)
			}
		}
		l.mu.Unlock()
	}
}

// AdminRateLimiter is a sliding window per authenticated operator with
// progressive penalties. It must run after AdminAuthMiddleware.
type AdminRateLimiter struct {
	mu          sync.Mutex
	state       map[string]timestamps // key = admin:<id>:<category>
	penalty     map[string]penaltyInfo
	window      time.Duration
	cleanupTick time.Duration
	readMax     int
	writeMax    int
}

type penaltyInfo struct {
	Level int
	Until int64 // unix nanos
}

func NewAdminRateLimiter(readMax, writeMax int, windowSec int) *AdminRateLimiter {
	l := &AdminRateLimiter{
		state:       make(map[string]timestamps),
		penalty:     make(map[string]penaltyInfo),
		window:      time.Duration(windowSec) * time.Second,
		cleanupTick: getEnvDuration("RATE_CLEANUP_SECONDS", 60*time.Second),
		readMax:     readMax,
		writeMax:    writeMax,
	}
	go l.cleanupLoop()
	return l
}

func routeCategory(r *http.Request) string {
	if strings.Contains(r.URL.Path, "/uploads/") {
		return "upload"
	}
	if r.Method == http.MethodGet {
		return "read"
	}
	return "write"
}

func (l *AdminRateLimiter) limitFor(cat string) int {
	switch cat {
	case "upload":
		return getEnvInt("RATE_ADMIN_UPLOAD", 20)
	case "read":
		return l.readMax
	default:
		return l.writeMax
	}
}

// penaltyFor maps an escalation level to a lock duration: 1, 5, 15 and then
// 30 minutes.
func penaltyFor(level int) time.Duration {
	switch level {
	case 1:
		return time.Minute
	case 2:
		return 5 * time.Minute
	case 3:
		return 15 * time.Minute
	default:
		return 30 * time.Minute
	}
}

func (l *AdminRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := r.Context().Value(utils.AdminIDKey).(int64)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		cat := routeCategory(r)
		limit := l.limitFor(cat)
		key := fmt.Sprintf("admin:%d:%s", adminID, cat)
		now := nowUnix()

		l.mu.Lock()
		pi := l.penalty[key]
		if pi.Until > now {
			l.mu.Unlock()
			writeTooMany(w, int(time.Duration(pi.Until-now).Seconds())+1, "Too many requests, try again later")
			return
		}
		filtered := slide(l.state[key], now, l.window)
		l.state[key] = filtered
		count := len(filtered)

		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > limit {
			level := pi.Level + 1
			d := penaltyFor(level)
			l.penalty[key] = penaltyInfo{Level: level, Until: now + int64(d)}
			l.mu.Unlock()
			utils.Logger().Warn("admin rate limit exceeded", zap.Int64("admin_id", adminID), zap.String("category", cat), zap.Int("level", level))
			writeTooMany(w, int(d.Seconds()), "Too many requests, try again later")
			return
		}
		l.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (l *AdminRateLimiter) cleanupLoop() {
	tick := time.NewTicker(l.cleanupTick)
	defer tick.Stop()
	for range tick.C {
		l.mu.Lock()
		now := nowUnix()
		cutoff := now - int64(l.window)
		for k, arr := range l.state {
			if len(arr) == 0 || arr[len(arr)-1] < cutoff {
				delete(l.state, k)
			}
		}
		for k, p := range l.penalty {
			if p.Until < now {
				delete(l.penalty, k)
			}
		}
		l.mu.Unlock()
	}
}

// Account lockout for failed dashboard logins, keyed by username. Redis is
// used when configured; otherwise an in-process cache holds the counters.
var (
	loginMu       sync.Mutex
	failedLogins  = gocache.New(30*time.Minute, 5*time.Minute)
	lockedLogins  = gocache.New(30*time.Minute, time.Minute)
	lockoutRedisT = 2 * time.Second
)

func lockKeys(username string) (string, string) {
	u := strings.ToLower(strings.TrimSpace(username))
	return "login:fail:" + u, "login:lock:" + u
}

// IsAccountLocked reports whether username is locked and for how long.
func IsAccountLocked(username string) (bool, time.Duration) {
	failKey, lockKey := lockKeys(username)
	if utils.RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), lockoutRedisT)
		defer cancel()
		ttl, err := utils.RedisClient.TTL(ctx, lockKey).Result()
		if err == nil {
			if ttl > 0 {
				return true, ttl
			}
			return false, 0
		}
		utils.Logger().Warn("lockout lookup failed, using local state", zap.Error(err))
	}
	_ = failKey
	_, exp, found := lockedLogins.GetWithExpiration(lockKey)
	if !found {
		return false, 0
	}
	return true, time.Until(exp)
}

// RecordFailedLogin bumps the failure counter and locks the account with a
// progressive duration.
func RecordFailedLogin(username string) {
	failKey, lockKey := lockKeys(username)
	if utils.RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), lockoutRedisT)
		defer cancel()
		failures, err := utils.RedisClient.Incr(ctx, failKey).Result()
		if err == nil {
			_ = utils.RedisClient.Expire(ctx, failKey, 30*time.Minute).Err()
			_ = utils.RedisClient.Set(ctx, lockKey, "1", penaltyFor(int(failures))).Err()
			return
		}
		utils.Logger().Warn("lockout update failed, using local state", zap.Error(err))
	}

	loginMu.Lock()
	defer loginMu.Unlock()
	failures := 1
	if v, found := failedLogins.Get(failKey); found {
		failures = v.(int) + 1
	}
	failedLogins.SetDefault(failKey, failures)
	lockedLogins.Set(lockKey, true, penaltyFor(failures))
}

func ResetFailedLogin(username string) {
	failKey, lockKey := lockKeys(username)
	if utils.RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), lockoutRedisT)
		defer cancel()
		_ = utils.RedisClient.Del(ctx, failKey, lockKey).Err()
	}
	failedLogins.Delete(failKey)
	lockedLogins.Delete(lockKey)
}

// WebhookLimiter is a sliding window per IP with a whitelist.
type WebhookLimiter struct {
	maxReq    int
	window    time.Duration
	whitelist map[string]bool
	mu        sync.Mutex
	state     map[string]timestamps
}

func NewWebhookLimiter(maxReq int, window time.Duration, whitelist []string) *WebhookLimiter {
	wl := make(map[string]bool)
	for _, ip := range whitelist {
		if ip = strings.TrimSpace(ip); ip != "" {
			wl[ip] = true
		}
	}
	return &WebhookLimiter{
		maxReq:    maxReq,
		window:    window,
		whitelist: wl,
		state:     make(map[string]timestamps),
	}
}

func (l *WebhookLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, nil)
		if l.whitelist[ip] {
			next.ServeHTTP(w, r)
			return
		}
		now := nowUnix()
		l.mu.Lock()
		filtered := slide(l.state[ip], now, l.window)
		l.state[ip] = filtered
		count := len(filtered)
		l.mu.Unlock()
		if count > l.maxReq {
			writeTooMany(w, retryAfterSeconds(filtered, now, l.window), "Too many webhook requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
