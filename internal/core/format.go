package core

// format.go defines the interchange layout shared by export and import.
//
// Workbook layout (1-based rows):
//
//	row 1   Page UUID | <canonical unit UUID>
//	row 2   Timestamp | <creation time>
//	row 3   ID        | Original | Translation           (header)
//	row 4+  <context> | <source> | <translation> [| OBSOLETE]
//
// The single worksheet is named after the identity marker of the unit.
// Spreadsheet applications cap sheet names at 31 characters, so the
// 36-character canonical UUID cannot be used directly.

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Metadata labels written into column A of the first two rows.
const (
	MetaUnitLabel      = "Page UUID"
	MetaTimestampLabel = "Timestamp"
)

// Header columns, in order.
const (
	ColumnID          = "ID"
	ColumnOriginal    = "Original"
	ColumnTranslation = "Translation"
)

// HeaderRow is the exact header expected at HeaderRowIndex.
var HeaderRow = []string{ColumnID, ColumnOriginal, ColumnTranslation}

const (
	// HeaderRowIndex is the 1-based row of the header.
	HeaderRowIndex = 3

	// ObsoleteTag marks rows whose segment no longer exists in the content.
	ObsoleteTag = "OBSOLETE"

	// MaxMarkerLength is the sheet-name limit of spreadsheet applications.
	MaxMarkerLength = 31

	// Presentation hints.
	FirstColumnWidth   = 12
	ContentColumnWidth = 80
	DefaultCellHeight  = 15
)

// markerAlphabet is the standard base64 alphabet with '+' and '/' replaced
// by '_' and '.', neither of which is forbidden in sheet names.
const markerAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_."

// markerEncoding is padded and strict: 16 bytes always encode to exactly 24
// characters (22 significant + "=="), and decoding rejects non-zero
// trailing bits, so each marker has exactly one preimage.
var markerEncoding = base64.NewEncoding(markerAlphabet).Strict()

// markerLength is the encoded length of a 16-byte UUID.
var markerLength = markerEncoding.EncodedLen(len(uuid.UUID{}))

// MarkerFromUUID encodes the raw bytes of id into the worksheet name used
// for its unit.
//
// Base64 maps every 3 input bytes to 4 output characters with no loss, and
// the strict padded form has a unique encoding per input. The mapping is
// therefore injective: two different UUIDs can never share a marker, which
// is stronger than the collision resistance a hash would give.
func MarkerFromUUID(id uuid.UUID) string {
	return markerEncoding.EncodeToString(id[:])
}

// UUIDFromMarker is the inverse of MarkerFromUUID. It rejects any string
// that MarkerFromUUID could not have produced.
func UUIDFromMarker(marker string) (uuid.UUID, error) {
	if len(marker) != markerLength {
		return uuid.Nil, fmt.Errorf("marker length %d, want %d", len(marker), markerLength)
	}
	raw, err := markerEncoding.DecodeString(marker)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode marker: %w", err)
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode marker: %w", err)
	}
	return id, nil
}

// headerMatches reports whether cells equal HeaderRow exactly. Trailing
// empty cells are ignored because readers drop them inconsistently.
func headerMatches(cells []string) bool {
	for len(cells) > len(HeaderRow) && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	if len(cells) != len(HeaderRow) {
		return false
	}
	for i, want := range HeaderRow {
		if cells[i] != want {
			return false
		}
	}
	return true
}

// rowHeight returns the row height that fits the longest cell of a data row
// when wrapped at ContentColumnWidth characters, capped at the tallest row
// a worksheet allows.
func rowHeight(cells ...string) float64 {
	longest := 0
	for _, c := range cells {
		if n := len([]rune(c)); n > longest {
			longest = n
		}
	}
	return min(float64(DefaultCellHeight*(longest/ContentColumnWidth+1)), excelize.MaxRowHeight)
}
