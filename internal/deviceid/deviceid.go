// Package deviceid implements the stable, human-formattable device identifier
// described in spec.md §3.
package deviceid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
)

const (
	// Min is the smallest valid DeviceId.
	Min uint32 = 100_000_000
	// Max is the largest valid DeviceId.
	Max uint32 = 999_999_999
	// Length is the number of decimal digits in every valid DeviceId.
	Length = 9
)

// DeviceId is a decimal value in [Min, Max], stable across process restarts.
type DeviceId uint32

// Generate returns a cryptographically random DeviceId within [Min, Max].
func Generate() (DeviceId, error) {
	span := int64(Max-Min) + 1
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0, fmt.Errorf("deviceid: generate: %w", err)
	}
	return DeviceId(uint32(n.Int64()) + Min), nil
}

// FromUint32 validates v and returns it as a DeviceId.
func FromUint32(v uint32) (DeviceId, error) {
	if v < Min || v > Max {
		return 0, fmt.Errorf("deviceid: %d out of range [%d, %d]", v, Min, Max)
	}
	return DeviceId(v), nil
}

// Parse strips any spaces from s and parses it as a DeviceId.
func Parse(s string) (DeviceId, error) {
	stripped := strings.ReplaceAll(s, " ", "")
	if len(stripped) != Length {
		return 0, fmt.Errorf("deviceid: %q must have %d digits", s, Length)
	}
	n, err := strconv.ParseUint(stripped, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("deviceid: %q is not numeric: %w", s, err)
	}
	return FromUint32(uint32(n))
}

// Validate reports whether s parses to a valid DeviceId (spaces tolerated).
func Validate(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String renders the plain 9-digit decimal form.
func (d DeviceId) String() string {
	return strconv.FormatUint(uint64(d), 10)
}

// FormatWithSpaces renders three space-separated groups of three digits,
// e.g. "123 456 789".
func (d DeviceId) FormatWithSpaces() string {
	s := d.String()
	return s[0:3] + " " + s[3:6] + " " + s[6:9]
}

// Uint32 returns the underlying numeric value.
func (d DeviceId) Uint32() uint32 { return uint32(d) }

// LoadOrCreate reads the single-line DeviceId file at path, generating and
// persisting a new one if the file does not exist.
func LoadOrCreate(path string) (DeviceId, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id, perr := Parse(strings.TrimSpace(string(data)))
		if perr == nil {
			return id, nil
		}
		// Fall through to regeneration on a corrupt file.
	} else if !os.IsNotExist(err) {
		return 0, fmt.Errorf("deviceid: read %s: %w", path, err)
	}

	id, err := Generate()
	if err != nil {
		return 0, err
	}
	if err := save(path, id); err != nil {
		return 0, err
	}
	return id, nil
}

// Regenerate creates a fresh random DeviceId and overwrites path.
func Regenerate(path string) (DeviceId, error) {
	id, err := Generate()
	if err != nil {
		return 0, err
	}
	return id, save(path, id)
}

func save(path string, id DeviceId) error {
	return os.WriteFile(path, []byte(id.String()+"\n"), 0600)
}
