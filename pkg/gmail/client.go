// Package gmail sends HTML mail through the Gmail API on behalf of the
// authenticated user.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Sender sends one HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Client implements Sender against the Gmail API.
type Client struct {
	svc *gmailapi.Service
}

// NewClient creates a Gmail client from a caller-supplied OAuth access token.
// Extra options (endpoint overrides in tests) are passed through to the
// underlying service.
func NewClient(ctx context.Context, accessToken string, opts ...option.ClientOption) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	clientOpts := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := gmailapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: new service")
	}
	return &Client{svc: svc}, nil
}

// Send delivers one HTML message as the authenticated user ("me").
func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	raw := base64.RawURLEncoding.EncodeToString([]byte(buildMessage(to, subject, htmlBody)))
	_, err := c.svc.Users.Messages.Send("me", &gmailapi.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return eris.Wrapf(err, "gmail: send to %s", to)
	}
	return nil
}

// buildMessage assembles a minimal RFC 822 HTML message.
func buildMessage(to, subject, htmlBody string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)
	return sb.String()
}
