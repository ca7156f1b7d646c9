package core

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Row is one data row of an interchange document.
type Row struct {
	Context     string // Context path (column A, "ID")
	Source      string // Source text (column B, "Original")
	Translation string // Target text (column C, "Translation")
	Obsolete    bool   // Column D carries ObsoleteTag
}

// Document is the in-memory form of an exported or uploaded workbook.
// Rows hold live segments first, in segment order, then obsolete rows.
type Document struct {
	Marker    string
	UnitID    uuid.UUID
	CreatedAt time.Time
	Rows      []Row
}

// ObsoleteCount returns the number of rows tagged obsolete.
func (d *Document) ObsoleteCount() int {
	n := 0
	for _, r := range d.Rows {
		if r.Obsolete {
			n++
		}
	}
	return n
}

// Export builds the document for unit from its current segments and every
// stored translation for the target locale. It has no side effects and,
// apart from createdAt, the result depends only on its inputs.
//
// Translations whose (string, context) pair is not covered by a segment are
// appended as obsolete rows, in the order they were given.
func Export(unit TranslationUnit, segments []Segment, translations []Translation, createdAt time.Time) *Document {
	ordered := sortedSegments(segments)

	byPair := make(map[pairKey]Translation, len(translations))
	for _, t := range translations {
		if t.Locale != "" && t.Locale != unit.TargetLocale {
			continue
		}
		if _, dup := byPair[t.key()]; !dup {
			byPair[t.key()] = t
		}
	}

	doc := &Document{
		Marker:    MarkerFromUUID(unit.ID),
		UnitID:    unit.ID,
		CreatedAt: createdAt,
		Rows:      make([]Row, 0, len(ordered)+len(translations)),
	}

	live := make(map[pairKey]struct{}, len(ordered))
	for _, s := range ordered {
		live[s.key()] = struct{}{}
		doc.Rows = append(doc.Rows, Row{
			Context:     s.Context.Path,
			Source:      s.String.Text,
			Translation: byPair[s.key()].Text,
		})
	}

	emitted := make(map[pairKey]struct{})
	for _, t := range translations {
		k := t.key()
		if _, ok := live[k]; ok {
			continue
		}
		if _, ok := emitted[k]; ok {
			continue
		}
		if t.Locale != "" && t.Locale != unit.TargetLocale {
			continue
		}
		emitted[k] = struct{}{}
		doc.Rows = append(doc.Rows, Row{
			Context:     t.Context.Path,
			Source:      t.String.Text,
			Translation: t.Text,
			Obsolete:    true,
		})
	}

	return doc
}

// sortedSegments returns a copy of segments in ascending Order. The sort is
// stable so equal ordinals keep their input order.
func sortedSegments(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	slices.SortStableFunc(out, func(a, b Segment) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}
