// Package i18n renders user-facing import messages in the requester's
// language. Catalogs are embedded TOML files in go-i18n format; messages
// missing from a catalog fall back to the English text carried by core.
package i18n

import (
	"embed"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/locsheet/internal/core"
)

//go:embed active.*.toml
var localeFS embed.FS

var catalogs = []string{"active.en.toml", "active.fr.toml"}

// Translator wraps a go-i18n bundle and a matcher over its languages.
type Translator struct {
	bundle   *i18n.Bundle
	matcher  language.Matcher
	fallback language.Tag
}

// New loads the embedded catalogs. defaultLocale is used when a request
// names no supported language; an unparsable value falls back to English.
func New(defaultLocale string) (*Translator, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}

	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, file := range catalogs {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, fmt.Errorf("i18n: load %s: %w", file, err)
		}
	}

	// The default goes first so the matcher falls back to it.
	tags := []language.Tag{tag}
	for _, t := range bundle.LanguageTags() {
		if t != tag {
			tags = append(tags, t)
		}
	}

	return &Translator{
		bundle:   bundle,
		matcher:  language.NewMatcher(tags),
		fallback: tag,
	}, nil
}

// Match picks the best supported language for an Accept-Language header.
func (t *Translator) Match(acceptLanguage string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return t.fallback
	}
	tag, _, _ := t.matcher.Match(prefs...)
	base, _ := tag.Base()
	return language.Make(base.String())
}

// T renders message id. lang may be a tag or a full Accept-Language value.
// Unknown ids render as the id itself.
func (t *Translator) T(lang, id string, data map[string]any) string {
	return t.localize(lang, &i18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// Plural renders a message with one/other forms selected by count. The
// template sees the count as .Count.
func (t *Translator) Plural(lang, id string, count int) string {
	return t.localize(lang, &i18n.LocalizeConfig{
		MessageID:    id,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

// UserMessage localizes msg by its support code, keeping the English text
// from core for codes the catalog does not cover.
func (t *Translator) UserMessage(lang string, msg core.UserMessage) core.UserMessage {
	out := msg
	out.Message = t.localize(lang, &i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: msg.Code, Other: msg.Message},
	})
	out.Action = t.localize(lang, &i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: msg.Code + "_action", Other: msg.Action},
	})
	return out
}

// Warning renders a row warning with its spreadsheet row number.
func (t *Translator) Warning(lang string, w core.Warning) string {
	data := map[string]any{"Row": core.SheetRow(w)}
	switch w := w.(type) {
	case core.UnknownString:
		data["Text"] = w.Text
	case core.UnknownContext:
		data["Path"] = w.Path
	case core.StringNotUsedInContext:
		data["Text"] = w.Text
		data["Path"] = w.Path
	}
	return t.T(lang, "warning_"+string(w.Kind()), data)
}

// Headline renders the one-line result of an import.
func (t *Translator) Headline(lang string, out *core.ImportOutcome) string {
	switch out.Status {
	case core.StatusImported:
		return t.Plural(lang, "status_imported", out.Applied)
	case core.StatusWrongUnit:
		return t.T(lang, "status_wrong_unit", nil)
	default:
		return t.T(lang, "status_invalid_file", nil)
	}
}

func (t *Translator) localize(lang string, cfg *i18n.LocalizeConfig) string {
	localizer := i18n.NewLocalizer(t.bundle, lang, t.fallback.String())
	msg, err := localizer.Localize(cfg)
	if err != nil {
		id := cfg.MessageID
		if cfg.DefaultMessage != nil {
			id = cfg.DefaultMessage.ID
		}
		slog.Debug("i18n: localize failed", "id", id, "lang", lang, "error", err)
		if msg == "" {
			return id
		}
	}
	return msg
}
