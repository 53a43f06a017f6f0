package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

// Indian mobile numbers: ten digits starting with 6 to 9.
var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// ValidMobile reports whether s is an acceptable login mobile number.
func ValidMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// NewOtp returns a four digit one time code with leading zeros kept.
func NewOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
