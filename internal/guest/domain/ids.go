package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var clientIDPattern = regexp.MustCompile(`^\d{13}-[0-9a-z]{9}$`)

// NewClientID returns "<unix millis>-<9 char base36 suffix>". Client ids
// identify list items inside a draft and are never sent to the resume API.
func NewClientID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), randomSuffix(9))
}

// IsClientID reports whether id has the client-generated shape.
func IsClientID(id string) bool {
	return clientIDPattern.MatchString(id)
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(fmt.Sprintf("random suffix: %v", err))
		}
		b[i] = idAlphabet[v.Int64()]
	}
	return string(b)
}
