package core

import (
	"encoding/json"
	"fmt"
)

// WarningKind names a row-level import problem.
type WarningKind string

const (
	KindUnknownString          WarningKind = "unknown_string"
	KindUnknownContext         WarningKind = "unknown_context"
	KindStringNotUsedInContext WarningKind = "string_not_used_in_context"
)

// Warning is a recoverable, row-level import problem. The set of
// implementations is closed: UnknownString, UnknownContext and
// StringNotUsedInContext. Use a type switch to render them.
type Warning interface {
	// Index is the zero-based position of the row among the data rows.
	Index() int
	Kind() WarningKind
	fmt.Stringer
	isWarning()
}

// UnknownString reports a row whose original text is not a known source string.
type UnknownString struct {
	Row  int
	Text string
}

// UnknownContext reports a row whose identifier is not a known context of the object.
type UnknownContext struct {
	Row  int
	Path string
}

// StringNotUsedInContext reports a row naming a string and context that were
// never paired, neither by a live segment nor by an existing translation.
type StringNotUsedInContext struct {
	Row  int
	Text string
	Path string
}

func (w UnknownString) Index() int          { return w.Row }
func (w UnknownContext) Index() int         { return w.Row }
func (w StringNotUsedInContext) Index() int { return w.Row }

func (UnknownString) Kind() WarningKind          { return KindUnknownString }
func (UnknownContext) Kind() WarningKind         { return KindUnknownContext }
func (StringNotUsedInContext) Kind() WarningKind { return KindStringNotUsedInContext }

func (UnknownString) isWarning()          {}
func (UnknownContext) isWarning()         {}
func (StringNotUsedInContext) isWarning() {}

func (w UnknownString) String() string {
	return fmt.Sprintf("row %d: unknown string %q", w.Row, w.Text)
}

func (w UnknownContext) String() string {
	return fmt.Sprintf("row %d: unknown context %q", w.Row, w.Path)
}

func (w StringNotUsedInContext) String() string {
	return fmt.Sprintf("row %d: string %q is not used in context %q", w.Row, w.Text, w.Path)
}

// warningJSON is the wire shape shared by all warnings.
type warningJSON struct {
	Kind WarningKind `json:"kind"`
	Row  int         `json:"row"`
	Text string      `json:"text,omitempty"`
	Path string      `json:"path,omitempty"`
}

func (w UnknownString) MarshalJSON() ([]byte, error) {
	return json.Marshal(warningJSON{Kind: w.Kind(), Row: w.Row, Text: w.Text})
}

func (w UnknownContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(warningJSON{Kind: w.Kind(), Row: w.Row, Path: w.Path})
}

func (w StringNotUsedInContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(warningJSON{Kind: w.Kind(), Row: w.Row, Text: w.Text, Path: w.Path})
}

// SheetRow converts a warning's data-row index into the 1-based spreadsheet
// row number a translator sees.
func SheetRow(w Warning) int {
	return HeaderRowIndex + 1 + w.Index()
}
