package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes text and drops combining marks, so "Café" becomes
// "Cafe" before non-ASCII runes are discarded.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases s, keeps ASCII letters, digits, underscores and hyphens,
// and collapses whitespace and hyphen runs into a single hyphen.
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// ExportFilename is the suggested download name for unit's workbook. The
// target locale is kept verbatim, so pt-BR stays pt-BR.
func ExportFilename(unit TranslationUnit) string {
	slug := Slugify(unit.ObjectLabel)
	if slug == "" {
		slug = "translation"
	}
	return slug + "-" + unit.TargetLocale + ".xlsx"
}
