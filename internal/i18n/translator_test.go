package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/locsheet/internal/core"
)

func newTranslator(t *testing.T) *Translator {
	t.Helper()
	tr, err := New("en")
	require.NoError(t, err)
	return tr
}

func TestTranslator_Match(t *testing.T) {
	tr := newTranslator(t)

	tests := []struct {
		accept string
		want   language.Tag
	}{
		{"fr-CH, fr;q=0.9, en;q=0.8", language.French},
		{"de-DE,de;q=0.9", language.English},
		{"", language.English},
		{"en-GB", language.English},
		{"not a header;;", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Match(tt.accept))
		})
	}
}

func TestTranslator_Headline(t *testing.T) {
	tr := newTranslator(t)

	assert.Equal(t, "1 translation applied.", tr.Headline("en", &core.ImportOutcome{Status: core.StatusImported, Applied: 1}))
	assert.Equal(t, "3 translations applied.", tr.Headline("en", &core.ImportOutcome{Status: core.StatusImported, Applied: 3}))
	assert.Equal(t, "3 traductions appliquées.", tr.Headline("fr", &core.ImportOutcome{Status: core.StatusImported, Applied: 3}))
	assert.Equal(t,
		"Cannot import XLSX file that was created for a different translation.",
		tr.Headline("en", &core.ImportOutcome{Status: core.StatusWrongUnit}))
	assert.Equal(t,
		"Please upload a valid XLSX file.",
		tr.Headline("de", &core.ImportOutcome{Status: core.StatusInvalidFile}))
}

func TestTranslator_Warning(t *testing.T) {
	tr := newTranslator(t)

	got := tr.Warning("en", core.StringNotUsedInContext{Row: 2, Text: "Hello", Path: "body.footer"})
	assert.Equal(t, `Row 6: "Hello" is not used at "body.footer".`, got)

	got = tr.Warning("fr", core.UnknownContext{Row: 0, Path: "nav.x"})
	assert.Contains(t, got, "Ligne 4")
	assert.Contains(t, got, "nav.x")
}

func TestTranslator_UserMessage(t *testing.T) {
	tr := newTranslator(t)

	msg := core.MapError(core.ErrTooManyImports)
	fr := tr.UserMessage("fr", msg)
	assert.Equal(t, "UPL002", fr.Code)
	assert.Equal(t, "Le système traite déjà d'autres imports", fr.Message)

	en := tr.UserMessage("en-US", msg)
	assert.Equal(t, msg, en)

	// Codes without a catalog entry keep the English text.
	db := core.UserMessage{Message: "Database was busy", Action: "Please try again", Code: "DB006"}
	assert.Equal(t, db, tr.UserMessage("fr", db))
}

func TestTranslator_UnknownID(t *testing.T) {
	tr := newTranslator(t)
	assert.Equal(t, "no_such_message", tr.T("en", "no_such_message", nil))
}

func TestNew_BadDefaultLocale(t *testing.T) {
	tr, err := New("???")
	require.NoError(t, err)
	assert.Equal(t, language.English, tr.Match(""))
}
