package deviceid

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []uint32{Min, Max, 123456789, 500000000}
	for _, v := range cases {
		id, err := FromUint32(v)
		if err != nil {
			t.Fatalf("FromUint32(%d): %v", v, err)
		}
		got, err := Parse(id.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", id.String(), err)
		}
		if got != id {
			t.Errorf("round trip mismatch: got %d want %d", got, id)
		}

		spaced := id.FormatWithSpaces()
		if strings.Count(spaced, " ") != 2 {
			t.Errorf("FormatWithSpaces(%d) = %q, want exactly two spaces", v, spaced)
		}
		if len(strings.ReplaceAll(spaced, " ", "")) != Length {
			t.Errorf("FormatWithSpaces(%d) = %q, want %d digits", v, spaced, Length)
		}

		gotSpaced, err := Parse(spaced)
		if err != nil || gotSpaced != id {
			t.Errorf("Parse(FormatWithSpaces(%d)) = %d, %v", v, gotSpaced, err)
		}
	}
}

func TestFromUint32OutOfRange(t *testing.T) {
	for _, v := range []uint32{0, 1, Min - 1, Max + 1, 4_000_000_000} {
		if _, err := FromUint32(v); err == nil {
			t.Errorf("FromUint32(%d) expected error", v)
		}
	}
}

func TestGenerateAlwaysInRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		id, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if id.Uint32() < Min || id.Uint32() > Max {
			t.Fatalf("Generate produced out-of-range id %d", id)
		}
	}
}

func TestLoadOrCreatePersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device_id")

	first, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}

	second, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate (reload): %v", err)
	}
	if first != second {
		t.Errorf("expected stable id across reloads, got %d then %d", first, second)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "12345", "1234567890", "99999999"} {
		if Validate(s) {
			t.Errorf("Validate(%q) = true, want false", s)
		}
	}
}
