package tools

import "fmt"

// RegisterBuiltins registers every built-in tool on the registry. The
// Google tools are skipped when auth is nil; the document search tool
// is skipped when searcher is nil.
func RegisterBuiltins(r *Registry, auth *GoogleAuth, searcher documentSearcher, defaultTopK int) error {
	builtins := []Tool{CreateAppleNote()}
	if auth != nil {
		builtins = append(builtins, AddCalendarEvent(auth), ComposeGmail(auth))
	}
	if searcher != nil {
		builtins = append(builtins, SearchDocuments(searcher, defaultTopK))
	}

	for _, t := range builtins {
		if err := r.Register(t); err != nil {
			return fmt.Errorf("registering %s: %w", t.Name, err)
		}
	}
	return nil
}
