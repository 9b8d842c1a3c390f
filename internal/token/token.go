// Package token generates the opaque strings handed out to attendees:
// check-in codes printed as QR codes and meal-selection link tokens.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"
)

type Kind string

const (
	KindCheckInCode Kind = "checkin-codes"
	KindMealToken   Kind = "meal-tokens"
)

func (k Kind) Valid() bool {
	return k == KindCheckInCode || k == KindMealToken
}

const (
	suffixAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLength    = 6
	mealTokenLength = 16
)

type Generator struct {
	prefix string
	now    func() time.Time
	random io.Reader
}

func NewGenerator(prefix string) *Generator {
	return &Generator{
		prefix: prefix,
		now:    time.Now,
		random: rand.Reader,
	}
}

func (g *Generator) Generate(kind Kind) (string, error) {
	switch kind {
	case KindCheckInCode:
		return g.CheckInCode()
	case KindMealToken:
		return g.MealToken()
	}
	return "", fmt.Errorf("unknown token kind %q", kind)
}

// CheckInCode combines a nanosecond timestamp with a random suffix so codes
// requested within the same instant during a batch still differ.
func (g *Generator) CheckInCode() (string, error) {
	suffix := make([]byte, suffixLength)
	max := big.NewInt(int64(len(suffixAlphabet)))
	for i := range suffix {
		n, err := rand.Int(g.random, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random suffix: %w", err)
		}
		suffix[i] = suffixAlphabet[n.Int64()]
	}

	code := strconv.FormatInt(g.now().UnixNano(), 36) + string(suffix)
	if g.prefix != "" {
		code = g.prefix + "-" + code
	}
	return strings.ToUpper(code), nil
}

func (g *Generator) MealToken() (string, error) {
	b := make([]byte, mealTokenLength)
	if _, err := io.ReadFull(g.random, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
