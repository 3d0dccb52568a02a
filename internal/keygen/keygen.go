// internal/keygen/keygen.go
package keygen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// LicenseKeyPrefix is the fixed vendor prefix of every license key.
const LicenseKeyPrefix = "ECOMPRIA"

// TokenPrefix is the fixed prefix of every auth token.
const TokenPrefix = "tk_"

const (
	licenseKeyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenCharset      = "abcdefghijklmnopqrstuvwxyz0123456789"

	licenseKeySegments  = 3
	licenseKeySegmentLn = 4
	tokenRandomLn       = 20
)

var (
	licenseKeyPattern = regexp.MustCompile(`^ECOMPRIA-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)
	tokenPattern      = regexp.MustCompile(`^tk_[a-z0-9]{20}$`)
)

// GenerateLicenseKey returns a new key in the form ECOMPRIA-XXXX-XXXX-XXXX.
// Keys gate theme usage, so randomness comes from crypto/rand; a guessable key
// is a forged license.
func GenerateLicenseKey() (string, error) {
	parts := make([]string, 0, licenseKeySegments+1)
	parts = append(parts, LicenseKeyPrefix)
	for i := 0; i < licenseKeySegments; i++ {
		segment, err := randomString(licenseKeyCharset, licenseKeySegmentLn)
		if err != nil {
			return "", fmt.Errorf("failed to generate license key segment: %w", err)
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, "-"), nil
}

// GenerateAuthToken returns a new token in the form tk_ + 20 chars of [a-z0-9].
func GenerateAuthToken() (string, error) {
	random, err := randomString(tokenCharset, tokenRandomLn)
	if err != nil {
		return "", fmt.Errorf("failed to generate auth token: %w", err)
	}
	return TokenPrefix + random, nil
}

// IsWellFormedLicenseKey reports whether s matches the license key format
// exactly. It never inspects persistence and never errors on bad input.
func IsWellFormedLicenseKey(s string) bool {
	return licenseKeyPattern.MatchString(s)
}

// IsWellFormedToken reports whether s matches the auth token format exactly.
func IsWellFormedToken(s string) bool {
	return tokenPattern.MatchString(s)
}

func randomString(charset string, length int) (string, error) {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}
	return string(b), nil
}
