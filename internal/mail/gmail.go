package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/inboxd/inboxd/internal/config"
)

const gmailUser = "me"

// GmailSource fetches messages from a Gmail inbox via the Gmail API.
type GmailSource struct {
	cfg config.GmailConfig
	srv *gmail.Service
}

// NewGmailSource creates a Gmail source. The API client is built lazily on
// the first fetch so that a missing token only fails the affected cycle, not
// process startup.
func NewGmailSource(cfg config.GmailConfig) *GmailSource {
	return &GmailSource{cfg: cfg}
}

// Configured reports whether both OAuth files are present.
func (g *GmailSource) Configured() bool {
	for _, path := range []string{g.cfg.CredentialsFile, g.cfg.TokenFile} {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// Fetch lists inbox messages and resolves each to a full Message.
func (g *GmailSource) Fetch(ctx context.Context, limit int, unreadOnly bool) ([]Message, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return nil, &SourceError{Err: err}
	}

	query := "in:inbox -in:draft"
	if unreadOnly {
		query += " is:unread"
	}

	list, err := srv.Users.Messages.List(gmailUser).
		MaxResults(int64(limit)).
		Q(query).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &SourceError{Err: fmt.Errorf("list messages: %w", err)}
	}

	messages := make([]Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		full, err := srv.Users.Messages.Get(gmailUser, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			// A single unavailable message should not fail the whole fetch.
			slog.Warn("gmail: get message failed", "id", ref.Id, "error", err)
			continue
		}
		messages = append(messages, parseGmailMessage(full))
	}

	return messages, nil
}

func (g *GmailSource) service(ctx context.Context) (*gmail.Service, error) {
	if g.srv != nil {
		return g.srv, nil
	}

	b, err := os.ReadFile(g.cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	tok, err := tokenFromFile(g.cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	g.srv = srv
	return srv, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func parseGmailMessage(msg *gmail.Message) Message {
	m := Message{ID: msg.Id}

	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			m.Unread = true
			break
		}
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				m.Sender = header.Value
			case "Subject":
				m.Subject = header.Value
			case "Date":
				m.ReceivedAt = parseMailDate(header.Value)
			}
		}
		m.Body = plainTextBody(msg.Payload)
	}

	if m.ReceivedAt.IsZero() && msg.InternalDate > 0 {
		m.ReceivedAt = time.UnixMilli(msg.InternalDate)
	}

	if m.Body == "" {
		m.Body = msg.Snippet
	}

	return m
}

// mailDateLayouts covers the date formats seen in the wild, most common first.
var mailDateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC822,
}

func parseMailDate(value string) time.Time {
	// Strip a trailing parenthesized zone name, e.g. " (UTC)".
	cleaned := value
	if open := strings.LastIndex(cleaned, " ("); open != -1 {
		if closing := strings.LastIndex(cleaned, ")"); closing > open {
			cleaned = strings.TrimSpace(cleaned[:open] + cleaned[closing+1:])
		}
	}

	for _, layout := range mailDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t
		}
	}

	slog.Warn("gmail: unparseable date header", "value", value)
	return time.Time{}
}

// plainTextBody walks the MIME tree for the first text part.
func plainTextBody(payload *gmail.MessagePart) string {
	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data)
		}
	}
	for _, part := range payload.Parts {
		mime := strings.ToLower(part.MimeType)
		if strings.HasPrefix(mime, "text/") || strings.HasPrefix(mime, "multipart/") {
			if body := plainTextBody(part); body != "" {
				return body
			}
		}
	}
	return ""
}
