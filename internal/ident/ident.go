// Package ident generates opaque identifiers and numeric invite codes.
package ident

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/gofrs/uuid/v5"
)

// DefaultCodeLen is the invite code digit count used unless configured otherwise.
const DefaultCodeLen = 5

// Opaque returns a random identifier for entities where the store does not
// assign a primary key of its own.
func Opaque() string {
	return uuid.Must(uuid.NewV4()).String()
}

// InviteCode returns a decimal string of exactly length digits, drawn
// uniformly from the full numeric range of that many digits
// (10000..99999 for length 5).
func InviteCode(length int) (string, error) {
	if length < 1 {
		length = DefaultCodeLen
	}
	min := int64(1)
	for i := 1; i < length; i++ {
		min *= 10
	}
	// 9*min values in [min, 10*min).
	n, err := rand.Int(rand.Reader, big.NewInt(9*min))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(min+n.Int64(), 10), nil
}
