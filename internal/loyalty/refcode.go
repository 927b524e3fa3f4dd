package loyalty

import (
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

// referral codes avoid 0/O/1/I/L lookalikes so they survive being read aloud
// at the front desk
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CodeGenerator derives short, human-friendly referral codes from account
// IDs. Codes are deterministic per account and collision-free because the
// underlying encoding is reversible.
type CodeGenerator struct {
	h *hashids.HashID
}

// NewCodeGenerator builds a generator with the given salt and minimum code
// length.
func NewCodeGenerator(salt string, minLength int) (*CodeGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength
	data.Alphabet = codeAlphabet

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to build referral code generator: %w", err)
	}
	return &CodeGenerator{h: h}, nil
}

// Code returns the referral code for an account ID, prefixed with the club
// initials as printed on the member card.
func (g *CodeGenerator) Code(accountID int64) (string, error) {
	encoded, err := g.h.EncodeInt64([]int64{accountID})
	if err != nil {
		return "", fmt.Errorf("failed to encode referral code: %w", err)
	}
	return "JZ-" + encoded, nil
}
