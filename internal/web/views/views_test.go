package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportResultPanel_EscapesUserText(t *testing.T) {
	var buf bytes.Buffer
	err := ImportResultPanel(ImportResult{
		Headline:        "2 translations applied.",
		Details:         []string{"1 new", "1 changed"},
		WarningsHeading: "1 row was skipped:",
		Warnings:        []string{`Row 5: "<script>alert(1)</script>" is not used at "a".`},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "2 translations applied.")
	assert.Contains(t, out, "1 new, 1 changed")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
}

func TestErrorAlertPanel(t *testing.T) {
	var buf bytes.Buffer
	err := ErrorAlertPanel(ErrorAlert{
		Heading: "Import failed",
		Message: "Cannot import XLSX file that was created for a different translation.",
		Code:    "Code: XLS002",
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `role="alert"`)
	assert.Contains(t, buf.String(), "Code: XLS002")
}

func TestPage(t *testing.T) {
	var buf bytes.Buffer
	body := ErrorAlertPanel(ErrorAlert{Message: "x"})
	require.NoError(t, Page("fr", "Import", "/pages/1", "Retour", body).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, `<html lang="fr">`)
	assert.Contains(t, out, `<a href="/pages/1">Retour</a>`)
	assert.Contains(t, out, `role="alert"`)
}
