package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// GoogleAuth builds authenticated HTTP clients for the Google tools
// from an OAuth client credentials file and previously stored tokens.
//
// Tokens are expected at <tokenDir>/<service>.json, written by an
// interactive consent flow outside this process.
type GoogleAuth struct {
	credentialsFile string
	tokenDir        string
}

// NewGoogleAuth creates a GoogleAuth.
func NewGoogleAuth(credentialsFile, tokenDir string) *GoogleAuth {
	return &GoogleAuth{credentialsFile: credentialsFile, tokenDir: tokenDir}
}

// Client returns an HTTP client authorized for the given service and
// scopes. The client refreshes tokens automatically.
func (g *GoogleAuth) Client(ctx context.Context, service string, scopes ...string) (*http.Client, error) {
	if g.credentialsFile == "" {
		return nil, fmt.Errorf("google credentials file not configured")
	}

	data, err := os.ReadFile(g.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	token, err := g.loadToken(service)
	if err != nil {
		return nil, err
	}
	return cfg.Client(ctx, token), nil
}

func (g *GoogleAuth) loadToken(service string) (*oauth2.Token, error) {
	path := filepath.Join(g.tokenDir, service+".json")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no stored token for %s, run the auth flow first: %w", service, err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("decoding token for %s: %w", service, err)
	}
	return &token, nil
}

// calendarService builds a Calendar API client.
func (g *GoogleAuth) calendarService(ctx context.Context) (*calendar.Service, error) {
	httpClient, err := g.Client(ctx, "calendar", calendar.CalendarEventsScope)
	if err != nil {
		return nil, err
	}
	return newCalendarService(ctx, httpClient)
}

// gmailService builds a Gmail API client.
func (g *GoogleAuth) gmailService(ctx context.Context) (*gmail.Service, error) {
	httpClient, err := g.Client(ctx, "gmail", gmail.GmailSendScope)
	if err != nil {
		return nil, err
	}
	return newGmailService(ctx, httpClient)
}
