package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"

	"github.com/pquerna/otp"
)

// Email codes have codeDigits digits and never start with zero.
const codeDigits = otp.DigitsSix

// codeRange returns the smallest and largest code of codeDigits digits
// without a leading zero.
func codeRange() (lo, hi int64) {
	lo = 1
	for i := 1; i < codeDigits.Length(); i++ {
		lo *= 10
	}
	return lo, lo*10 - 1
}

// GenerateCode returns a uniformly random one-time code in [100000, 999999].
func GenerateCode() (string, error) {
	lo, hi := codeRange()
	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo+1))
	if err != nil {
		return "", err
	}
	return codeDigits.Format(int32(lo + n.Int64())), nil
}

// CodeLength is the number of digits in a one-time code.
func CodeLength() int {
	return codeDigits.Length()
}

// wellFormedCode reports whether code has the shape GenerateCode produces.
func wellFormedCode(code string) bool {
	if len(code) != codeDigits.Length() {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func constantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
