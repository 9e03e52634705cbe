// Package cos provides common low-level types and utilities shared across
// this module's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// NOTE: cannot be smaller than any valid max length below
	tooLongID   = 64
	tooLongName = 64
)

const (
	mayOnlyContain = "may only contain letters, numbers, dashes (-), underscores (_)"
	OnlyNice       = "must be at most 64 characters and " + mayOnlyContain
	OnlyPlus       = mayOnlyContain + ", and dots (.)"
)

// GenUUID returns a new globally-unique id in the same random-UUID format
// msg assigns to cmd_id (msg calls google/uuid directly). The teacher
// generates these with a
// hand-rolled shortid alphabet and a tie-breaker counter (cmn/cos/uuid.go
// upstream) tuned for its own cluster daemon-id allocator; this module has
// no daemon-id analog, so it reaches for google/uuid - already present
// (indirectly) throughout the retrieved corpus - instead of reproducing that
// machinery.
func GenUUID() string { return uuid.NewString() }

func IsValidUUID(s string) bool {
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	return len(s) > 0 && len(s) <= tooLongID && IsAlphaNice(s)
}

// CryptoRandS returns a cryptographically random alphanumeric string of
// length n, for a caller that needs a short random token without the full
// uuid format. (msg's buffer borrow tokens are counter-based and do not
// use it.)
func CryptoRandS(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("cos: crypto/rand failed: %v", err))
	}
	for i, v := range b {
		b[i] = alphabet[int(v)%len(alphabet)]
	}
	return string(b)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// letters and numbers w/ '-' and '_' permitted, not as first/last rune.
func IsAlphaNice(s string) bool {
	l := len(s)
	if l == 0 || l > tooLongID {
		return false
	}
	for i := 0; i < l; i++ {
		c := s[i]
		if isAlpha(c) || (c >= '0' && c <= '9') {
			continue
		}
		if c != '-' && c != '_' {
			return false
		}
		if i == 0 || i == l-1 {
			return false
		}
	}
	return true
}

// alpha-numeric++ including letters, numbers, dashes (-), underscores (_);
// period (.) allowed except as '..'. graphdef.Validate does not call it.
func CheckAlphaPlus(s, tag string) error {
	l := len(s)
	if l > tooLongName {
		return fmt.Errorf("%s is too long: %d > %d(max length)", tag, l, tooLongName)
	}
	for i := 0; i < l; i++ {
		c := s[i]
		if isAlpha(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		if c != '.' {
			return errors.New(tag + " is invalid: " + OnlyPlus)
		}
		if i < l-1 && s[i+1] == '.' {
			return errors.New(tag + " is invalid: " + OnlyPlus)
		}
	}
	return nil
}
