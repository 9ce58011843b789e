// Package idgen produces the identifiers printed on or attached to cards:
// sequential physical serials, random public passport tokens, and advisory
// batch labels. Generation is pure with respect to the inventory snapshot
// it is given; uniqueness against concurrent writers is enforced by the
// store's constraints, not here.
package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"time"
)

const (
	base62Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// PublicIDLength is the default passport token length. At 62^8 the
	// collision risk is negligible but not zero; the link path retries on
	// a uniqueness violation.
	PublicIDLength = 8
)

var trailingDigits = regexp.MustCompile(`\d+$`)

// GeneratePublicID draws length characters uniformly from [A-Za-z0-9].
// A non-positive length falls back to PublicIDLength.
func GeneratePublicID(length int) (string, error) {
	if length <= 0 {
		length = PublicIDLength
	}
	max := big.NewInt(int64(len(base62Alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate public id: %w", err)
		}
		out[i] = base62Alphabet[n.Int64()]
	}
	return string(out), nil
}

// GenerateSerials emits count new serials of the form
// prefix + zero-padded 5-digit index, continuing from the highest numeric
// suffix found in existing. Serials with no trailing digits are ignored
// when determining the starting index.
//
// The result is collision-free relative to the snapshot passed in; two
// concurrent calls from different snapshots can still collide, which the
// registry's unique constraint catches at insert time.
func GenerateSerials(existing []string, prefix string, count int) []string {
	last := 0
	for _, serial := range existing {
		match := trailingDigits.FindString(serial)
		if match == "" {
			continue
		}
		n, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if n > last {
			last = n
		}
	}

	serials := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		serials = append(serials, fmt.Sprintf("%s%05d", prefix, last+i))
	}
	return serials
}

// GenerateBatchID returns an advisory batch label: BATCH-{yyyymmdd}-{nnnn}.
// Not required to be unique.
func GenerateBatchID(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("BATCH-%s-%04d", now.Format("20060102"), suffix)
}
