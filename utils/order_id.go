package utils

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var mu sync.Mutex
var seededRand *rand.Rand

func init() {
	seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))
}

// GenerateOTP returns a numeric one-time code with the given number of digits.
func GenerateOTP(digits int) string {
	if digits <= 0 {
		digits = 4
	}
	mu.Lock()
	defer mu.Unlock()

	var b strings.Builder
	b.Grow(digits)
	b.WriteByte(byte('1' + seededRand.Intn(9)))
	for i := 1; i < digits; i++ {
		b.WriteByte(byte('0' + seededRand.Intn(10)))
	}
	return b.String()
}

// NewDocumentID returns a random identifier for documents without a natural key.
func NewDocumentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
