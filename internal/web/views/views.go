// Package views renders the HTML fragments returned by the upload endpoint.
// Components are plain templ.ComponentFunc values so they compose with any
// templ-generated layout.
package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// ImportResult is the data shown after a successful upload.
type ImportResult struct {
	Headline        string
	Details         []string // "2 new", "1 changed", ...
	Notice          string   // dry run or deletion notice
	WarningsHeading string
	Warnings        []string
}

// ErrorAlert describes a failed request.
type ErrorAlert struct {
	Heading string
	Message string
	Action  string
	Code    string // already localized, e.g. "Code: XLS002"
}

// ImportResultPanel renders the success panel for an import.
func ImportResultPanel(v ImportResult) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="rounded-md bg-green-50 p-4" role="status" id="import-result">`)
		fmt.Fprintf(&b, `<p class="text-sm font-medium text-green-800">%s</p>`, templ.EscapeString(v.Headline))
		if len(v.Details) > 0 {
			fmt.Fprintf(&b, `<p class="mt-1 text-sm text-green-700">%s</p>`, templ.EscapeString(strings.Join(v.Details, ", ")))
		}
		if v.Notice != "" {
			fmt.Fprintf(&b, `<p class="mt-1 text-sm text-green-700">%s</p>`, templ.EscapeString(v.Notice))
		}
		if len(v.Warnings) > 0 {
			b.WriteString(`<div class="mt-3 rounded-md bg-yellow-50 p-3">`)
			fmt.Fprintf(&b, `<p class="text-sm font-medium text-yellow-800">%s</p>`, templ.EscapeString(v.WarningsHeading))
			b.WriteString(`<ul class="mt-1 list-disc pl-5 text-sm text-yellow-700">`)
			for _, warning := range v.Warnings {
				fmt.Fprintf(&b, `<li>%s</li>`, templ.EscapeString(warning))
			}
			b.WriteString(`</ul></div>`)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlertPanel renders an error with its suggested action and code.
func ErrorAlertPanel(v ErrorAlert) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="rounded-md bg-red-50 p-4" role="alert" id="import-error">`)
		if v.Heading != "" {
			fmt.Fprintf(&b, `<h3 class="text-sm font-medium text-red-800">%s</h3>`, templ.EscapeString(v.Heading))
		}
		fmt.Fprintf(&b, `<p class="mt-1 text-sm text-red-700">%s</p>`, templ.EscapeString(v.Message))
		if v.Action != "" {
			fmt.Fprintf(&b, `<p class="mt-1 text-sm text-red-700">%s</p>`, templ.EscapeString(v.Action))
		}
		if v.Code != "" {
			fmt.Fprintf(&b, `<p class="mt-2 text-xs text-red-500">%s</p>`, templ.EscapeString(v.Code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Page wraps body in a minimal HTML document for non-HTMX form posts.
// back, when set, must already be a validated local URL.
func Page(lang, title, back, backLabel string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		head := fmt.Sprintf(`<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8"><title>%s</title></head><body><main class="mx-auto max-w-3xl p-6">`,
			templ.EscapeString(lang), templ.EscapeString(title))
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		tail := `</main></body></html>`
		if back != "" {
			tail = fmt.Sprintf(`<p class="mt-4"><a href="%s">%s</a></p>`, templ.EscapeString(back), templ.EscapeString(backLabel)) + tail
		}
		_, err := io.WriteString(w, tail)
		return err
	})
}
