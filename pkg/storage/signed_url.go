package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("storage: invalid download token")
	ErrTokenExpired = errors.New("storage: download token expired")
)

// SignedURLSigner issues HMAC tokens that grant time-limited access to one object.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration { return s.ttl }

// Generate returns a token binding objectID to the stored name.
// Token layout: objectID.expiryUnix.base64(name).hexHMAC
func (s *SignedURLSigner) Generate(objectID, name string) (string, time.Time, error) {
	if objectID == "" || name == "" {
		return "", time.Time{}, fmt.Errorf("object id and name required")
	}
	if strings.Contains(objectID, ".") {
		return "", time.Time{}, fmt.Errorf("object id must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(name))
	token := strings.Join([]string{objectID, exp, encoded, s.sign(objectID, exp, encoded)}, ".")
	return token, expiresAt, nil
}

// Parse verifies a token and returns the object id and stored name.
// allowExpired skips the expiry check.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (objectID, name string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, ErrInvalidToken
	}
	objectID, exp, encoded, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(objectID, exp, encoded)), []byte(signature)) {
		return "", "", time.Time{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return objectID, string(raw), expiresAt, nil
}

func (s *SignedURLSigner) sign(objectID, exp, encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(objectID + "|" + exp + "|" + encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
