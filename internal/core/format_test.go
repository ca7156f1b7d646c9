package core

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestMarkerFromUUID_KnownValues(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"00000000-0000-0000-0000-000000000000", "AAAAAAAAAAAAAAAAAAAAAA=="},
		{"ffffffff-ffff-ffff-ffff-ffffffffffff", ".....................w=="},
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", "a6e4EJ2tEdGAtADAT9QwyA=="},
		{"fbf3ef7d-f7fe-4bff-bf3e-fbeffb3ff8ff", "_.Pvfff_S._.Pvvv_z.4.w=="},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := MarkerFromUUID(uuid.MustParse(tt.id))
			if got != tt.want {
				t.Errorf("MarkerFromUUID(%s) = %q, want %q", tt.id, got, tt.want)
			}
			if len(got) > MaxMarkerLength {
				t.Errorf("marker length %d exceeds %d", len(got), MaxMarkerLength)
			}
		})
	}
}

func TestUUIDFromMarker_RoundTrip(t *testing.T) {
	seen := make(map[string]uuid.UUID)
	for i := 0; i < 500; i++ {
		id := uuid.New()
		marker := MarkerFromUUID(id)

		if other, dup := seen[marker]; dup {
			t.Fatalf("marker %q produced by %s and %s", marker, other, id)
		}
		seen[marker] = id

		got, err := UUIDFromMarker(marker)
		if err != nil {
			t.Fatalf("UUIDFromMarker(%q) error: %v", marker, err)
		}
		if got != id {
			t.Errorf("UUIDFromMarker(%q) = %s, want %s", marker, got, id)
		}
	}
}

func TestUUIDFromMarker_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"empty", ""},
		{"canonical uuid", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"missing padding", "a6e4EJ2tEdGAtADAT9QwyA"},
		{"standard alphabet", "+/Pvfff+S/+/Pvvv+z/4/w=="},
		{"non-zero trailing bits", ".....................x=="},
		{"sheet default name", "Sheet1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if id, err := UUIDFromMarker(tt.marker); err == nil {
				t.Errorf("UUIDFromMarker(%q) = %s, want error", tt.marker, id)
			}
		})
	}
}

func TestHeaderMatches(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  bool
	}{
		{"exact", []string{"ID", "Original", "Translation"}, true},
		{"trailing blanks", []string{"ID", "Original", "Translation", "", ""}, true},
		{"renamed", []string{"ID", "Source", "Translation"}, false},
		{"reordered", []string{"Original", "ID", "Translation"}, false},
		{"extra column", []string{"ID", "Original", "Translation", "Notes"}, false},
		{"short", []string{"ID", "Original"}, false},
		{"case differs", []string{"id", "original", "translation"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headerMatches(tt.cells); got != tt.want {
				t.Errorf("headerMatches(%v) = %v, want %v", tt.cells, got, tt.want)
			}
		})
	}
}

func TestRowHeight(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  float64
	}{
		{"empty", []string{"", "", ""}, 15},
		{"short", []string{"a", "Hello", ""}, 15},
		{"exactly one line", []string{"", string(make([]byte, 79)), ""}, 15},
		{"wraps once", []string{"", string(make([]byte, 80)), ""}, 30},
		{"longest wins", []string{"", string(make([]byte, 100)), string(make([]byte, 250))}, 60},
		{"last line under cap", []string{"", string(make([]byte, 2159)), ""}, 405},
		{"capped", []string{"", string(make([]byte, 2160)), ""}, 409},
		{"long paragraph", []string{"", strings.Repeat("a", 5000), ""}, 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rowHeight(tt.cells...); got != tt.want {
				t.Errorf("rowHeight = %v, want %v", got, tt.want)
			}
		})
	}
}
