package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/database"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RedisClient is an optional shared Redis client used for token revocation,
// login lockout and the event checkpoint. It stays nil when REDIS_ADDR is unset.
var RedisClient *redis.Client

// revokedLocal is the last-resort revocation store when neither Redis nor
// MySQL is reachable. Entries expire with the token.
var revokedLocal = gocache.New(6*time.Hour, 10*time.Minute)

type contextKey string

const AdminIDKey = contextKey("adminID")
const RequestIDKey = contextKey("requestID")

// adminTokenTTL bounds dashboard sessions.
const adminTokenTTL = 6 * time.Hour

func jwtSecret() (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	return secret, nil
}

// GenerateJWT generates a new JWT token for the given admin ID, username and role
func GenerateJWT(id int64, username, role string) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	jti, err := generateJTI(32)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"id":       id,
		"username": username,
		"role":     role,
		"exp":      now.Add(adminTokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      jti,
		"aud":      os.Getenv("JWT_AUD"),
		"iss":      os.Getenv("JWT_ISS"),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken parses and validates the access token and checks the jti
// against the revocation store.
func ValidateAccessToken(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, nil, err
	}
	token, err := jwt.ParseWithClaims(tokenStr, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Require exact HS256 to avoid algorithm confusion.
		if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, errors.New("token expired")
		}
		return nil, nil, errors.New("invalid token")
	}
	if !token.Valid {
		return nil, nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return token, nil, errors.New("invalid claims")
	}

	if audEnv := os.Getenv("JWT_AUD"); audEnv != "" {
		aud, err := claims.GetAudience()
		if err != nil {
			return token, nil, errors.New("invalid audience claim format")
		}
		found := false
		for _, a := range aud {
			if a == audEnv {
				found = true
				break
			}
		}
		if !found {
			return token, nil, errors.New("invalid audience")
		}
	}

	if issEnv := os.Getenv("JWT_ISS"); issEnv != "" {
		if iss, _ := claims.GetIssuer(); iss != issEnv {
			return token, nil, errors.New("invalid issuer")
		}
	}

	if jti, ok := claims["jti"].(string); ok && jti != "" && isRevoked(jti) {
		return token, nil, errors.New("token revoked")
	}

	return token, claims, nil
}

// isRevoked checks Redis first, then the revoked_tokens table, then the local cache.
// Store outages never fail authentication.
func isRevoked(jti string) bool {
	if RedisClient != nil {
		res, err := RedisClient.Get(context.Background(), "jwt:blacklist:"+jti).Result()
		if err == nil && res == "1" {
			return true
		}
	}
	if database.DB != nil {
		var rec struct {
			ID string `gorm:"primaryKey"`
		}
		err := database.DB.Table("revoked_tokens").Where("id = ?", jti).First(&rec).Error
		if err == nil {
			return true
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			Logger().Sugar().Debugw("revocation lookup failed", "error", err)
		}
	}
	_, found := revokedLocal.Get(jti)
	return found
}

// RevokeJTI inserts a jti into the revocation store. Redis keys carry a TTL,
// MySQL rows are upserted, and the local cache always records it.
func RevokeJTI(jti string, ttl time.Duration) error {
	if jti == "" {
		return errors.New("empty jti")
	}
	revokedLocal.Set(jti, true, ttl)

	if RedisClient != nil {
		return RedisClient.Set(context.Background(), "jwt:blacklist:"+jti, "1", ttl).Err()
	}
	if database.DB != nil {
		res := database.DB.Exec("INSERT INTO revoked_tokens (id, revoked_at) VALUES (?, ?) ON DUPLICATE KEY UPDATE revoked_at = VALUES(revoked_at)", jti, time.Now())
		return res.Error
	}
	return nil
}

// TokenRemaining returns how long the token in claims stays valid.
func TokenRemaining(claims jwt.MapClaims) time.Duration {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return adminTokenTTL
	}
	if d := time.Until(exp.Time); d > 0 {
		return d
	}
	return time.Second
}

// ClaimInt64 reads a numeric claim that may have been decoded as float64 or string.
func ClaimInt64(claims jwt.MapClaims, key string) int64 {
	switch v := claims[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		var n int64
		_, _ = fmt.Sscanf(v, "%d", &n)
		return n
	}
	return 0
}

// generateJTI creates a URL-safe random identifier used as JWT ID
func generateJTI(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	const hex = "0123456789abcdef"
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = hex[int(b[i])%len(hex)]
	}
	return string(out), nil
}
