// Package numbering turns sequential claim numbers into short public codes
// and back. Codes are salted so that neighbouring numbers do not look alike.
package numbering

import (
	"fmt"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/speps/go-hashids/v2"
)

const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type Encoder struct {
	h *hashids.HashID
}

func NewEncoder(salt string, minLength int) (*Encoder, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength
	data.Alphabet = alphabet

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init claim code encoder: %w", err)
	}
	return &Encoder{h: h}, nil
}

// Encode returns the public code for claim number n. n must be positive.
func (e *Encoder) Encode(n int64) (string, error) {
	if n <= 0 {
		return "", apperr.Validation("number", "claim number must be positive")
	}
	code, err := e.h.EncodeInt64([]int64{n})
	if err != nil {
		return "", fmt.Errorf("encode claim number: %w", err)
	}
	return code, nil
}

// Decode reverses Encode. Codes produced with another salt are rejected.
func (e *Encoder) Decode(code string) (int64, error) {
	nums, err := e.h.DecodeInt64WithError(code)
	if err != nil || len(nums) != 1 || nums[0] <= 0 {
		return 0, apperr.Validation("code", fmt.Sprintf("invalid claim code %q", code))
	}
	return nums[0], nil
}
