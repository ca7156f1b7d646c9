// Package memory implements core.Store in process memory. Transactions run
// against a private copy of the data that replaces the committed copy only
// when the transaction function succeeds.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/locsheet/internal/core"
)

var (
	_ core.Store = (*Store)(nil)
	_ core.Tx    = (*tx)(nil)
)

type segmentRef struct {
	order     int
	stringID  int64
	contextID int64
}

type state struct {
	units        map[uuid.UUID]core.TranslationUnit
	strings      map[int64]core.SourceString
	contexts     map[int64]core.Context
	segments     map[uuid.UUID][]segmentRef
	translations map[int64]core.Translation
	nextID       int64
}

func newState() *state {
	return &state{
		units:        make(map[uuid.UUID]core.TranslationUnit),
		strings:      make(map[int64]core.SourceString),
		contexts:     make(map[int64]core.Context),
		segments:     make(map[uuid.UUID][]segmentRef),
		translations: make(map[int64]core.Translation),
	}
}

func (s *state) clone() *state {
	c := &state{
		units:        maps.Clone(s.units),
		strings:      maps.Clone(s.strings),
		contexts:     maps.Clone(s.contexts),
		segments:     make(map[uuid.UUID][]segmentRef, len(s.segments)),
		translations: maps.Clone(s.translations),
		nextID:       s.nextID,
	}
	for k, v := range s.segments {
		c.segments[k] = slices.Clone(v)
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is an in-memory core.Store. The zero value is not usable; call New.
type Store struct {
	mu     sync.Mutex // serializes transactions
	dataMu sync.RWMutex
	data   *state
	audit  []core.AuditEntry
	faults map[string]error
}

// New returns an empty store.
func New() *Store {
	return &Store{data: newState(), faults: make(map[string]error)}
}

// FailOn makes the named Tx method return err until cleared with a nil err.
// Method names match the core.Tx interface, e.g. "UpdateTranslation".
func (s *Store) FailOn(method string, err error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if err == nil {
		delete(s.faults, method)
		return
	}
	s.faults[method] = err
}

// AddUnit registers a translation unit.
func (s *Store) AddUnit(u core.TranslationUnit) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data.units[u.ID] = u
}

// AddString returns the source string for (locale, text), creating it if needed.
func (s *Store) AddString(locale, text string) core.SourceString {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if str, ok := findString(s.data, locale, text); ok {
		return str
	}
	str := core.SourceString{ID: s.data.id(), Locale: locale, Text: text}
	s.data.strings[str.ID] = str
	return str
}

// AddContext returns the context for (objectID, path), creating it if needed.
func (s *Store) AddContext(objectID, path string) core.Context {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if c, ok := findContext(s.data, objectID, path); ok {
		return c
	}
	c := core.Context{ID: s.data.id(), ObjectID: objectID, Path: path}
	s.data.contexts[c.ID] = c
	return c
}

// AddSegment appends a live segment of unit at path with source text,
// creating the string and context as needed.
func (s *Store) AddSegment(unit core.TranslationUnit, order int, path, text string) core.Segment {
	str := s.AddString(unit.SourceLocale, text)
	c := s.AddContext(unit.ObjectID, path)

	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data.segments[unit.ID] = append(s.data.segments[unit.ID], segmentRef{order: order, stringID: str.ID, contextID: c.ID})
	return core.Segment{Order: order, String: str, Context: c}
}

// ClearSegments removes every live segment of unit, leaving its strings,
// contexts and translations in place.
func (s *Store) ClearSegments(unitID uuid.UUID) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	delete(s.data.segments, unitID)
}

// SyncUnit registers unit and replaces its live segments with segments, in
// order. Orders start at 1.
func (s *Store) SyncUnit(_ context.Context, unit core.TranslationUnit, segments []core.SegmentInput) error {
	s.AddUnit(unit)
	s.ClearSegments(unit.ID)
	for i, seg := range segments {
		s.AddSegment(unit, i+1, seg.Path, seg.Text)
	}
	return nil
}

// AddTranslation stores t outside any transaction and returns it with its ID.
func (s *Store) AddTranslation(t core.Translation) core.Translation {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	t.ID = s.data.id()
	s.data.translations[t.ID] = t
	return t
}

// Translations returns every committed translation ordered by ID.
func (s *Store) Translations() []core.Translation {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return sortedTranslations(s.data.translations, func(core.Translation) bool { return true })
}

// AuditLog returns the recorded audit entries in insertion order.
func (s *Store) AuditLog() []core.AuditEntry {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return slices.Clone(s.audit)
}

func (s *Store) GetUnit(_ context.Context, id uuid.UUID) (core.TranslationUnit, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	u, ok := s.data.units[id]
	if !ok {
		return core.TranslationUnit{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) ListSegments(_ context.Context, unit core.TranslationUnit) ([]core.Segment, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()

	refs := slices.Clone(s.data.segments[unit.ID])
	slices.SortStableFunc(refs, func(a, b segmentRef) int { return cmp.Compare(a.order, b.order) })

	out := make([]core.Segment, 0, len(refs))
	for _, r := range refs {
		out = append(out, core.Segment{
			Order:   r.order,
			String:  s.data.strings[r.stringID],
			Context: s.data.contexts[r.contextID],
		})
	}
	return out, nil
}

func (s *Store) ListTranslations(_ context.Context, unit core.TranslationUnit) ([]core.Translation, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return sortedTranslations(s.data.translations, inScope(unit)), nil
}

func (s *Store) RecordAudit(_ context.Context, entry core.AuditEntry) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	entry.ID = int64(len(s.audit) + 1)
	s.audit = append(s.audit, entry)
	return nil
}

// InTx runs fn against a copy of the committed data and publishes the copy
// only when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(core.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataMu.RLock()
	work := s.data.clone()
	faults := maps.Clone(s.faults)
	s.dataMu.RUnlock()

	if err := fn(&tx{data: work, faults: faults}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.dataMu.Lock()
	s.data = work
	s.dataMu.Unlock()
	return nil
}

type tx struct {
	data   *state
	faults map[string]error
}

func (t *tx) fault(method string) error {
	return t.faults[method]
}

func (t *tx) FindString(_ context.Context, locale, text string) (core.SourceString, error) {
	if err := t.fault("FindString"); err != nil {
		return core.SourceString{}, err
	}
	if str, ok := findString(t.data, locale, text); ok {
		return str, nil
	}
	return core.SourceString{}, core.ErrNotFound
}

func (t *tx) FindContext(_ context.Context, objectID, path string) (core.Context, error) {
	if err := t.fault("FindContext"); err != nil {
		return core.Context{}, err
	}
	if c, ok := findContext(t.data, objectID, path); ok {
		return c, nil
	}
	return core.Context{}, core.ErrNotFound
}

func (t *tx) HasSegment(_ context.Context, unit core.TranslationUnit, stringID, contextID int64) (bool, error) {
	if err := t.fault("HasSegment"); err != nil {
		return false, err
	}
	return slices.ContainsFunc(t.data.segments[unit.ID], func(r segmentRef) bool {
		return r.stringID == stringID && r.contextID == contextID
	}), nil
}

func (t *tx) HasTranslation(_ context.Context, stringID, contextID int64) (bool, error) {
	if err := t.fault("HasTranslation"); err != nil {
		return false, err
	}
	for _, tr := range t.data.translations {
		if tr.String.ID == stringID && tr.Context.ID == contextID {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) FindTranslation(_ context.Context, stringID, contextID int64, locale string) (core.Translation, error) {
	if err := t.fault("FindTranslation"); err != nil {
		return core.Translation{}, err
	}
	for _, tr := range t.data.translations {
		if tr.String.ID == stringID && tr.Context.ID == contextID && tr.Locale == locale {
			return tr, nil
		}
	}
	return core.Translation{}, core.ErrNotFound
}

func (t *tx) CreateTranslation(_ context.Context, tr core.Translation) (core.Translation, error) {
	if err := t.fault("CreateTranslation"); err != nil {
		return core.Translation{}, err
	}
	tr.ID = t.data.id()
	t.data.translations[tr.ID] = tr
	return tr, nil
}

func (t *tx) UpdateTranslation(_ context.Context, tr core.Translation) error {
	if err := t.fault("UpdateTranslation"); err != nil {
		return err
	}
	if _, ok := t.data.translations[tr.ID]; !ok {
		return fmt.Errorf("translation %d: %w", tr.ID, core.ErrNotFound)
	}
	t.data.translations[tr.ID] = tr
	return nil
}

func (t *tx) DeleteTranslationsExcept(_ context.Context, unit core.TranslationUnit, keep []int64) (int64, error) {
	if err := t.fault("DeleteTranslationsExcept"); err != nil {
		return 0, err
	}
	match := inScope(unit)
	var n int64
	for id, tr := range t.data.translations {
		if match(tr) && !slices.Contains(keep, id) {
			delete(t.data.translations, id)
			n++
		}
	}
	return n, nil
}

func findString(s *state, locale, text string) (core.SourceString, bool) {
	for _, str := range s.strings {
		if str.Locale == locale && str.Text == text {
			return str, true
		}
	}
	return core.SourceString{}, false
}

func findContext(s *state, objectID, path string) (core.Context, bool) {
	for _, c := range s.contexts {
		if c.ObjectID == objectID && c.Path == path {
			return c, true
		}
	}
	return core.Context{}, false
}

// inScope matches translations in the unit's target locale attached to a
// context of the unit's object.
func inScope(unit core.TranslationUnit) func(core.Translation) bool {
	return func(t core.Translation) bool {
		return t.Locale == unit.TargetLocale && t.Context.ObjectID == unit.ObjectID
	}
}

func sortedTranslations(all map[int64]core.Translation, keep func(core.Translation) bool) []core.Translation {
	out := make([]core.Translation, 0, len(all))
	for _, t := range all {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b core.Translation) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
