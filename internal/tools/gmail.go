package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func newGmailService(ctx context.Context, httpClient *http.Client) (*gmail.Service, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("building gmail client: %w", err)
	}
	return svc, nil
}

// ComposeGmail returns the compose_gmail tool, which sends a plain text
// email from the user's Gmail account.
func ComposeGmail(auth *GoogleAuth) Tool {
	return Tool{
		Name:        "compose_gmail",
		Description: "Send a plain text email from the user's Gmail account.",
		Parameters:  schemaFor(&ComposeGmailInput{}),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			var input ComposeGmailInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			raw, err := encodeMessage(input)
			if err != nil {
				return nil, err
			}

			svc, err := auth.gmailService(ctx)
			if err != nil {
				return nil, err
			}
			_, err = svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
			if err != nil {
				return nil, fmt.Errorf("sending email: %w", err)
			}
			return fmt.Sprintf("Email sent to %s", input.To), nil
		},
	}
}

// encodeMessage validates the input and builds the base64url RFC 2822
// message the Gmail API expects.
func encodeMessage(input ComposeGmailInput) (string, error) {
	if _, err := mail.ParseAddress(input.To); err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", input.To, err)
	}
	if input.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", input.To)
	fmt.Fprintf(&sb, "Subject: %s\r\n", input.Subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(input.Body)

	return base64.URLEncoding.EncodeToString([]byte(sb.String())), nil
}
