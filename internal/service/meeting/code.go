package meeting

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/Kamaljeyaram/Matrix/internal/model"
)

// CodeLength is the fixed length of every meeting code.
const CodeLength = 8

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode produces a meeting code from a crypto-grade source. It makes
// no uniqueness promise on its own; the store's unique key does that.
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate meeting code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Link derives the video-conference URL for a code. Deterministic: the same
// code always maps to the same URL, distinct codes to distinct URLs.
func Link(base, code string) string {
	return base + "-" + model.NormalizeCode(code)
}
