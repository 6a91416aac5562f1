package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomSuffix returns n random base-36 characters.
func RandomSuffix(n int) string {
	max := big.NewInt(int64(len(base36)))
	b := make([]byte, n)
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		b[i] = base36[v.Int64()]
	}
	return string(b)
}

// NewReference builds ids of the form PREFIX_<epochMillis>_<random9>.
func NewReference(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), RandomSuffix(9))
}

// NewUserTransactionID is the locally generated dedupe key stored on every payment.
func NewUserTransactionID(now time.Time) string {
	return NewReference("USER", now)
}
