// Package fingerprint computes perceptual hashes of preview images and
// compares them by Hamming distance.
//
// A fingerprint is a 256-bit DCT perceptual hash (16x16) encoded as 64
// lower-case hex characters. Similar frames give fingerprints a few bits
// apart; the hash is a similarity signal, not an identity.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// HashSize is the side length of the DCT grid; the fingerprint has
// HashSize*HashSize bits.
const HashSize = 16

// ErrFingerprintFailed reports that an image could not be hashed.
var ErrFingerprintFailed = errors.New("fingerprint failed")

// Error carries the image path alongside the failure.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fingerprint %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrFingerprintFailed, e.Err}
}

// Hasher computes fingerprints from image files.
type Hasher struct{}

// FromFile hashes the image at path.
func (Hasher) FromFile(path string) (string, error) {
	return FromFile(path)
}

// FromFile decodes the image at path (JPEG, PNG, GIF or WebP) and returns its
// hex-encoded perceptual hash.
func FromFile(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", &Error{Path: path, Err: err}
	}
	hash, err := goimagehash.ExtPerceptionHash(img, HashSize, HashSize)
	if err != nil {
		return "", &Error{Path: path, Err: err}
	}
	return Encode(hash.GetHash()), nil
}

// Encode renders hash words as big-endian lower-case hex.
func Encode(words []uint64) string {
	buf := make([]byte, 8*len(words))
	for i, word := range words {
		binary.BigEndian.PutUint64(buf[i*8:], word)
	}
	return hex.EncodeToString(buf)
}

// Distance returns the number of differing bits between two hex
// fingerprints. The shorter value is zero-padded on the left.
func Distance(a, b string) (int, error) {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0, errors.New("fingerprint distance: empty fingerprint")
	}
	width := max(len(a), len(b))
	a = strings.Repeat("0", width-len(a)) + a
	b = strings.Repeat("0", width-len(b)) + b

	distance := 0
	for i := 0; i < width; i++ {
		x, ok := nibble(a[i])
		if !ok {
			return 0, fmt.Errorf("fingerprint distance: invalid hex %q", a)
		}
		y, ok := nibble(b[i])
		if !ok {
			return 0, fmt.Errorf("fingerprint distance: invalid hex %q", b)
		}
		distance += bits.OnesCount8(x ^ y)
	}
	return distance, nil
}

// Valid reports whether value is a non-empty hex string.
func Valid(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if _, ok := nibble(value[i]); !ok {
			return false
		}
	}
	return true
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
