package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenFormat = errors.New("invalid token format")
	ErrTokenSig    = errors.New("invalid token signature")
	ErrTokenExp    = errors.New("token expired")
)

// GenerateClientToken builds a token string for a status-channel client.
// Format: base64url(client_id + "." + exp_unix + "." + hex(hmac_sha256(secret, client_id+"."+exp)))
func GenerateClientToken(secret, clientID string, expUnix int64) string {
	msg := clientID + "." + strconv.FormatInt(expUnix, 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	sig := hex.EncodeToString(mac.Sum(nil))
	return base64.RawURLEncoding.EncodeToString([]byte(msg + "." + sig))
}

// ValidateClientToken parses and validates the token, returning the
// embedded client ID.
func ValidateClientToken(secret, token string, now time.Time, skewSeconds int) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrTokenFormat
	}
	parts := strings.Split(string(b), ".")
	if len(parts) != 3 {
		return "", ErrTokenFormat
	}
	clientID, expStr, sigHex := parts[0], parts[1], parts[2]
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return "", ErrTokenFormat
	}
	msg := clientID + "." + expStr
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	want := mac.Sum(nil)
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return "", ErrTokenFormat
	}
	// constant-time compare
	if !hmac.Equal(want, got) {
		return "", ErrTokenSig
	}
	if now.Unix() > exp+int64(skewSeconds) {
		return "", ErrTokenExp
	}
	return clientID, nil
}
