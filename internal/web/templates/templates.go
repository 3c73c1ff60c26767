// Package templates renders the HTMX fragments returned to the import page.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/stmtimport/internal/core"
)

// ErrorAlert renders a dismissable error box with a support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ImportSummary renders the state of an import and the next step buttons.
func ImportSummary(s core.ImportSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		base := "/api/imports/" + s.ID.String()

		fmt.Fprintf(&b, `<section id="import-%s" class="import-summary" data-phase="%s">`,
			s.ID, templ.EscapeString(string(s.Phase)))
		fmt.Fprintf(&b, `<h2>%s</h2>`, templ.EscapeString(s.FileName))
		fmt.Fprintf(&b, `<p class="strategy">Strategy: %s</p>`, templ.EscapeString(s.StrategyName))
		fmt.Fprintf(&b, `<p class="counts">%d rows, %d ready, %d with errors</p>`,
			s.TotalRows, s.ValidRows, s.ErrorCount)
		if s.Archived {
			fmt.Fprintf(&b, `<a href="%s/statement" download>Original statement</a>`, base)
		}

		if len(s.NewAccounts) > 0 {
			b.WriteString(`<h3>New accounts</h3><ul class="new-accounts">`)
			for _, a := range s.NewAccounts {
				fmt.Fprintf(&b, `<li>%s <span class="field">%s</span></li>`,
					templ.EscapeString(a.Name), templ.EscapeString(string(a.Field)))
			}
			b.WriteString(`</ul>`)
			fmt.Fprintf(&b, `<button hx-post="%s/accounts" hx-target="#import-%s" hx-swap="outerHTML">Create accounts</button>`,
				base, s.ID)
		}

		if len(s.Errors) > 0 {
			b.WriteString(`<h3>Row errors</h3><ul class="row-errors">`)
			for _, e := range s.Errors {
				fmt.Fprintf(&b, `<li>Row %d: %s</li>`, e.RowIndex, templ.EscapeString(e.Message))
			}
			b.WriteString(`</ul>`)
			if s.ErrorCount > len(s.Errors) {
				fmt.Fprintf(&b, `<p>%d more not shown.</p>`, s.ErrorCount-len(s.Errors))
			}
			fmt.Fprintf(&b, `<a href="%s/errors.csv" download>Download errors</a>`, base)
		}

		switch {
		case s.Phase == core.PhaseCommitted:
			fmt.Fprintf(&b, `<p class="committed">%d transfers imported.</p>`, s.Committed)
		case s.CanCommit:
			fmt.Fprintf(&b, `<button hx-post="%s/commit" hx-target="#import-%s" hx-swap="outerHTML">Import %d transfers</button>`,
				base, s.ID, s.ValidRows)
		}

		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
