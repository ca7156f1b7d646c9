package core

// workbook.go converts between Document and xlsx bytes.
//
// Presentation hints (widths, wrapping, fills, protection) are written on
// export and ignored on import. Only the marker, the unit cell, the header
// and the data rows carry meaning.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of the exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// timestampLayout renders the creation time in column B of row 2.
const timestampLayout = "2006-01-02 15:04:05.000000-07:00"

// ErrFileTooLarge is wrapped by DecodeWorkbook when the upload exceeds
// WorkbookLimits.MaxBytes.
var ErrFileTooLarge = errors.New("file too large")

// ErrUnsupportedText is wrapped by EncodeWorkbook when a cell value would not
// survive a write to the worksheet unchanged.
var ErrUnsupportedText = errors.New("text cannot be stored in a spreadsheet cell")

// WorkbookLimits bounds the work done decoding an untrusted upload.
type WorkbookLimits struct {
	MaxBytes    int64 // Compressed size
	MaxUnzipped int64 // Total uncompressed size of the archive
	MaxRows     int   // Data rows after the header
}

// DefaultWorkbookLimits is used when a zero WorkbookLimits is supplied.
var DefaultWorkbookLimits = WorkbookLimits{
	MaxBytes:    20 << 20,
	MaxUnzipped: 200 << 20,
	MaxRows:     100_000,
}

func (l WorkbookLimits) withDefaults() WorkbookLimits {
	if l.MaxBytes <= 0 {
		l.MaxBytes = DefaultWorkbookLimits.MaxBytes
	}
	if l.MaxUnzipped <= 0 {
		l.MaxUnzipped = DefaultWorkbookLimits.MaxUnzipped
	}
	if l.MaxRows <= 0 {
		l.MaxRows = DefaultWorkbookLimits.MaxRows
	}
	return l
}

// workbookStyles holds the style IDs registered on a new workbook.
type workbookStyles struct {
	meta        int
	header      int
	headerFirst int
	firstCol    int
	source      int
	translation int
}

func registerStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	thick := func(side string) excelize.Border {
		return excelize.Border{Type: side, Color: "000000", Style: 5}
	}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.meta, &excelize.Style{Font: &excelize.Font{Italic: true}}},
		{&s.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Border: []excelize.Border{thick("bottom")},
		}},
		{&s.headerFirst, &excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Border: []excelize.Border{thick("bottom"), thick("right")},
		}},
		{&s.firstCol, &excelize.Style{
			Border:    []excelize.Border{thick("right")},
			Alignment: &excelize.Alignment{Vertical: "top"},
		}},
		{&s.source, &excelize.Style{
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		}},
		{&s.translation, &excelize.Style{
			Fill:       excelize.Fill{Type: "pattern", Color: []string{"FFFF00"}, Pattern: 1},
			Alignment:  &excelize.Alignment{WrapText: true, Vertical: "top"},
			Protection: &excelize.Protection{Locked: false},
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("register style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

// EncodeWorkbook renders doc as xlsx bytes: a single protected worksheet
// named doc.Marker in which only the translation column is editable.
func EncodeWorkbook(doc *Document) ([]byte, error) {
	if len(doc.Marker) > MaxMarkerLength {
		return nil, fmt.Errorf("marker %q exceeds %d characters", doc.Marker, MaxMarkerLength)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := doc.Marker
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	styles, err := registerStyles(f)
	if err != nil {
		return nil, err
	}

	meta := [][]interface{}{
		{MetaUnitLabel, doc.UnitID.String()},
		{MetaTimestampLabel, doc.CreatedAt.Format(timestampLayout)},
	}
	for i, cells := range meta {
		if err := setRow(f, sheet, i+1, cells); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "C2", styles.meta); err != nil {
		return nil, fmt.Errorf("style metadata: %w", err)
	}

	header := make([]interface{}, len(HeaderRow))
	for i, h := range HeaderRow {
		header[i] = h
	}
	if err := setRow(f, sheet, HeaderRowIndex, header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, cell("B", HeaderRowIndex), cell("C", HeaderRowIndex), styles.header); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetCellStyle(sheet, cell("A", HeaderRowIndex), cell("A", HeaderRowIndex), styles.headerFirst); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, r := range doc.Rows {
		n := HeaderRowIndex + 1 + i
		if err := checkCells(r.Context, r.Source, r.Translation); err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", n, r.Context, err)
		}
		cells := []interface{}{r.Context, r.Source, r.Translation}
		if r.Obsolete {
			cells = append(cells, ObsoleteTag)
		}
		if err := setRow(f, sheet, n, cells); err != nil {
			return nil, err
		}
		if err := f.SetRowHeight(sheet, n, rowHeight(r.Context, r.Source, r.Translation)); err != nil {
			return nil, fmt.Errorf("row %d height: %w", n, err)
		}
	}

	if len(doc.Rows) > 0 {
		first, last := HeaderRowIndex+1, HeaderRowIndex+len(doc.Rows)
		for _, c := range []struct {
			col   string
			style int
		}{
			{"A", styles.firstCol},
			{"B", styles.source},
			{"C", styles.translation},
		} {
			if err := f.SetCellStyle(sheet, cell(c.col, first), cell(c.col, last), c.style); err != nil {
				return nil, fmt.Errorf("style column %s: %w", c.col, err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", FirstColumnWidth); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "C", ContentColumnWidth); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}

	if err := f.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
		FormatColumns:       true,
		FormatRows:          true,
		SelectLockedCells:   true,
		SelectUnlockedCells: true,
	}); err != nil {
		return nil, fmt.Errorf("protect sheet: %w", err)
	}
	if err := f.ProtectWorkbook(&excelize.WorkbookProtectionOptions{LockStructure: true}); err != nil {
		return nil, fmt.Errorf("protect workbook: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWorkbook reads an uploaded workbook for unit. Every structural
// problem is returned as a *StructuralError and no rows are returned with it:
//
//   - the bytes are not a readable xlsx file (ReasonUnreadable)
//   - no worksheet is named after the unit's marker, or the unit cell does
//     not hold the unit's UUID (ReasonIdentityMismatch)
//   - the header row differs from HeaderRow (ReasonHeaderMismatch)
func DecodeWorkbook(r io.Reader, unit TranslationUnit, limits WorkbookLimits) (*Document, error) {
	limits = limits.withDefaults()

	data, err := io.ReadAll(io.LimitReader(r, limits.MaxBytes+1))
	if err != nil {
		return nil, structuralf(ReasonUnreadable, err, "read upload")
	}
	if int64(len(data)) > limits.MaxBytes {
		return nil, structuralf(ReasonUnreadable, ErrFileTooLarge, "limit is %d bytes", limits.MaxBytes)
	}
	if len(data) == 0 {
		return nil, structuralf(ReasonUnreadable, nil, "empty file")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{
		UnzipSizeLimit:    limits.MaxUnzipped,
		UnzipXMLSizeLimit: limits.MaxUnzipped,
	})
	if err != nil {
		return nil, structuralf(ReasonUnreadable, err, "open workbook")
	}
	defer f.Close()

	marker := MarkerFromUUID(unit.ID)
	if sheets := f.GetSheetList(); !slices.Contains(sheets, marker) {
		if other, ok := unitIDFromSheets(sheets); ok {
			return nil, structuralf(ReasonIdentityMismatch, nil, "workbook was exported for unit %s", other)
		}
		return nil, structuralf(ReasonIdentityMismatch, nil, "no worksheet named %q", marker)
	}

	rows, err := f.GetRows(marker)
	if err != nil {
		return nil, structuralf(ReasonUnreadable, err, "read worksheet")
	}

	unitCell := strings.TrimSpace(cellAt(rows, 1, 2))
	if unitCell != unit.ID.String() {
		return nil, structuralf(ReasonIdentityMismatch, nil, "unit cell %q does not match %s", unitCell, unit.ID)
	}
	if len(rows) < HeaderRowIndex || !headerMatches(rows[HeaderRowIndex-1]) {
		return nil, structuralf(ReasonHeaderMismatch, nil, "expected %s in row %d", strings.Join(HeaderRow, ", "), HeaderRowIndex)
	}

	body := rows[HeaderRowIndex:]
	if len(body) > limits.MaxRows {
		return nil, structuralf(ReasonUnreadable, ErrFileTooLarge, "%d rows exceeds limit of %d", len(body), limits.MaxRows)
	}

	doc := &Document{
		Marker:    marker,
		UnitID:    unit.ID,
		CreatedAt: parseTimestamp(cellAt(rows, 2, 2)),
		Rows:      make([]Row, 0, len(body)),
	}
	for _, cells := range body {
		doc.Rows = append(doc.Rows, Row{
			Context:     cellOf(cells, 0),
			Source:      cellOf(cells, 1),
			Translation: cellOf(cells, 2),
			Obsolete:    cellOf(cells, 3) == ObsoleteTag,
		})
	}
	return doc, nil
}

// checkCells rejects values that excelize would alter on write: runes outside
// the XML character range are replaced with U+FFFD and long values are
// truncated. Either would break the match on the next import.
func checkCells(values ...string) error {
	for _, v := range values {
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: invalid UTF-8", ErrUnsupportedText)
		}
		if n := utf8.RuneCountInString(v); n > excelize.TotalCellChars {
			return fmt.Errorf("%w: %d characters exceeds %d", ErrUnsupportedText, n, excelize.TotalCellChars)
		}
		for _, r := range v {
			if !xmlChar(r) {
				return fmt.Errorf("%w: control character %U", ErrUnsupportedText, r)
			}
		}
	}
	return nil
}

// xmlChar reports whether r is in the XML 1.0 Char production.
func xmlChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r < 0x20, r == 0xFFFE, r == 0xFFFF:
		return false
	case r >= 0xD800 && r <= 0xDFFF:
		return false
	}
	return true
}

// setRow writes cells starting at column A of the 1-based row n.
func setRow(f *excelize.File, sheet string, n int, cells []interface{}) error {
	if err := f.SetSheetRow(sheet, cell("A", n), &cells); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// cellAt returns the value at 1-based (row, col), or "" when GetRows
// trimmed it away.
func cellAt(rows [][]string, row, col int) string {
	if row < 1 || row > len(rows) {
		return ""
	}
	return cellOf(rows[row-1], col-1)
}

func cellOf(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999-07:00", "2006-01-02 15:04:05-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// unitIDFromSheets returns the unit a workbook was exported for, if any of
// its sheet names is a valid marker. Used to explain identity mismatches.
func unitIDFromSheets(sheets []string) (uuid.UUID, bool) {
	for _, s := range sheets {
		if id, err := UUIDFromMarker(s); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}
