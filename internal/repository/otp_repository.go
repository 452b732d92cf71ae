package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTP verification outcomes.
const (
	OTPMissing  = -1
	OTPMismatch = 0
	OTPValid    = 1
)

// verifyOTP consumes the code on match. Wrong guesses are counted and the
// code is burned after ARGV[3] failures.
var verifyOTP = redis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then return -1 end
if stored == ARGV[1] then
  redis.call('DEL', KEYS[1], KEYS[2])
  return 1
end
local n = redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[2])
if n >= tonumber(ARGV[3]) then redis.call('DEL', KEYS[1], KEYS[2]) end
return 0
`)

// OTPRepository keeps registration codes in Redis.
type OTPRepository struct {
	client      *redis.Client
	maxFailures int
}

// NewOTPRepository constructs an OTPRepository.
func NewOTPRepository(client *redis.Client) *OTPRepository {
	return &OTPRepository{client: client, maxFailures: 5}
}

func otpKeys(email string) []string {
	e := strings.ToLower(strings.TrimSpace(email))
	return []string{"otp:" + e, "otp:" + e + ":failures"}
}

// Save stores code for email, replacing any previous code.
func (r *OTPRepository) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	keys := otpKeys(email)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, keys[0], code, ttl)
	pipe.Del(ctx, keys[1])
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

// Verify checks code and consumes it on success. It returns one of OTPMissing,
// OTPMismatch or OTPValid.
func (r *OTPRepository) Verify(ctx context.Context, email, code string) (int, error) {
	keys := otpKeys(email)
	ttl, err := r.client.PTTL(ctx, keys[0]).Result()
	if err != nil {
		return OTPMissing, fmt.Errorf("verify otp: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	res, err := verifyOTP.Run(ctx, r.client, keys, code, ttl.Milliseconds(), r.maxFailures).Int()
	if err != nil {
		return OTPMissing, fmt.Errorf("verify otp: %w", err)
	}
	return res, nil
}
