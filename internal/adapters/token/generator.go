package token

import (
	"crypto/rand"
	"fmt"

	"lettermill/internal/domain"
)

const (
	tokenLength   = 25
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// rejectionBound is the largest multiple of len(tokenAlphabet) that fits in
// a byte; sampling below it keeps every symbol equally likely.
const rejectionBound = byte(248)

type generator struct{}

// NewGenerator returns a TokenGenerator backed by crypto/rand that emits
// 25-character alphanumeric tokens.
func NewGenerator() domain.TokenGenerator {
	return &generator{}
}

func (g *generator) Generate() (string, error) {
	out := make([]byte, 0, tokenLength)
	buf := make([]byte, 2*tokenLength)
	for len(out) < tokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= rejectionBound {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == tokenLength {
				break
			}
		}
	}
	return string(out), nil
}
