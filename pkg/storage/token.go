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
	// ErrTokenInvalid covers malformed and tampered tokens.
	ErrTokenInvalid = errors.New("download token invalid")
	// ErrTokenExpired marks a well-formed token past its deadline.
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadToken is what a signed export link grants: one file, for one
// job, until the deadline.
type DownloadToken struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// TokenSigner issues and verifies HMAC-signed download tokens.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenSigner builds a signer. A non-positive ttl defaults to 24h.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given job and file path.
func (s *TokenSigner) Issue(jobID, path string) (string, DownloadToken, error) {
	if jobID == "" || path == "" {
		return "", DownloadToken{}, fmt.Errorf("jobID and path are required")
	}
	if len(s.secret) == 0 {
		return "", DownloadToken{}, fmt.Errorf("signing secret missing")
	}

	tok := DownloadToken{
		JobID:     jobID,
		Path:      path,
		ExpiresAt: time.Now().Add(s.ttl).Truncate(time.Second),
	}
	payload := strings.Join([]string{tok.JobID, strconv.FormatInt(tok.ExpiresAt.Unix(), 10), tok.Path}, "|")
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + s.sign(encoded), tok, nil
}

// Verify checks the signature and deadline of a raw token.
func (s *TokenSigner) Verify(raw string) (DownloadToken, error) {
	encoded, signature, ok := strings.Cut(raw, ".")
	if !ok {
		return DownloadToken{}, ErrTokenInvalid
	}
	if !hmac.Equal([]byte(s.sign(encoded)), []byte(signature)) {
		return DownloadToken{}, ErrTokenInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return DownloadToken{}, ErrTokenInvalid
	}
	parts := strings.SplitN(string(payload), "|", 3)
	if len(parts) != 3 {
		return DownloadToken{}, ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return DownloadToken{}, ErrTokenInvalid
	}

	tok := DownloadToken{
		JobID:     parts[0],
		Path:      parts[2],
		ExpiresAt: time.Unix(expUnix, 0),
	}
	if time.Now().After(tok.ExpiresAt) {
		return DownloadToken{}, ErrTokenExpired
	}
	return tok, nil
}

func (s *TokenSigner) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
