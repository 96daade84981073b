package utils

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"regexp"
	"strings"
)

// ReferralType represents the type of entity for which a referral code is being generated
type ReferralType string

const (
	PartnerType         ReferralType = "PTR"
	CustomerType        ReferralType = "CUS"
	InfluencerType      ReferralType = "INF"
	PreregistrationType ReferralType = "PRE"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{2,30}[A-Z0-9]$`)

// ErrMalformedCode is returned when a code string fails validation.
var ErrMalformedCode = errors.New("malformed referral code")

// NormalizeCode uppercases and trims a user-supplied code. Codes are
// case-insensitive at the boundary but stored and compared uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode normalizes a code and rejects empty or malformed strings before
// any lookup happens.
func ValidateCode(code string) (string, error) {
	normalized := NormalizeCode(code)
	if normalized == "" || !codePattern.MatchString(normalized) {
		return "", ErrMalformedCode
	}
	return normalized, nil
}

// GenerateReferralCode generates a unique referral code for the specified entity type
// Format: {TYPE}-{RANDOM} where RANDOM is 6 alphanumeric characters
// Example: PTR-ABC123, CUS-XYZ789, PRE-DEF456
func GenerateReferralCode(entityType ReferralType) (string, error) {
	// Generate 4 random bytes (will give us 6 characters in base32)
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	// Convert to base32 and take first 6 characters
	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = randomStr[:6]

	// Convert to uppercase and remove any non-alphanumeric characters
	randomStr = strings.ToUpper(randomStr)
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	// Ensure we have exactly 6 characters
	if len(randomStr) < 6 {
		randomStr = randomStr + strings.Repeat("0", 6-len(randomStr))
	}

	return string(entityType) + "-" + randomStr, nil
}

// GeneratePartnerCode generates a personal referral code for a partner
func GeneratePartnerCode() (string, error) {
	return GenerateReferralCode(PartnerType)
}

// GenerateCustomerCode generates a personal referral code for a customer
func GenerateCustomerCode() (string, error) {
	return GenerateReferralCode(CustomerType)
}

// GenerateInfluencerCode generates a referral code for an influencer
func GenerateInfluencerCode() (string, error) {
	return GenerateReferralCode(InfluencerType)
}

// GeneratePreregistrationCode generates a pre-registration invite code
func GeneratePreregistrationCode() (string, error) {
	return GenerateReferralCode(PreregistrationType)
}
