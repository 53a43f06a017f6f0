package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeGenerator produces candidate booking codes. Implementations do not
// have to guarantee uniqueness; the booking flow retries on collisions
// against the unique index.
type CodeGenerator interface {
	Next(now time.Time) (string, error)
}

// FormatBookingCode builds a booking code from a timestamp and a suffix:
// "BK" + two-digit year + two-digit month + four-digit suffix, e.g.
// "BK26090042".
func FormatBookingCode(now time.Time, suffix int) string {
	return fmt.Sprintf("BK%02d%02d%04d", now.Year()%100, int(now.Month()), suffix)
}

// randomCodes draws the four-digit suffix from crypto/rand.
type randomCodes struct{}

// NewCodeGenerator returns the default random code generator.
func NewCodeGenerator() CodeGenerator { return randomCodes{} }

func (randomCodes) Next(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return FormatBookingCode(now, int(n.Int64())), nil
}
