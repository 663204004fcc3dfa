package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const signedCookiePrefix = "s:"

// SignCookie encodes value as "s:<value>.<signature>".
func SignCookie(value, secret string) string {
	return signedCookiePrefix + value + "." + cookieSignature(value, secret)
}

// UnsignCookie returns the original value when the signature matches.
func UnsignCookie(signed, secret string) (string, bool) {
	if !strings.HasPrefix(signed, signedCookiePrefix) {
		return "", false
	}
	body := strings.TrimPrefix(signed, signedCookiePrefix)
	idx := strings.LastIndex(body, ".")
	if idx <= 0 {
		return "", false
	}
	value, sig := body[:idx], body[idx+1:]

	expected := cookieSignature(value, secret)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}
	return value, true
}

func cookieSignature(value, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return base64.RawStdEncoding.EncodeToString(mac.Sum(nil))
}
