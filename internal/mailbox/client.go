// Copyright (C) 2025  The vigilmail authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mailbox

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/models"
)

func init() {
	viper.SetDefault("ingest.dialtimeout", "30s")
}

// ConnectionError wraps failures to reach or authenticate against a remote
// mailbox. Ingestion treats these as transient and leaves the mailbox
// untouched until the next cycle.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mailbox: connection to %s failed: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Message is a single mail fetched from a remote mailbox.
type Message struct {
	UID        uint32
	MessageID  string
	Sender     string
	Recipient  string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// Session is an authenticated connection to a remote mailbox with the
// configured folder selected.
type Session interface {
	// Fetch returns up to limit unread messages without changing any flags.
	Fetch(context.Context, int64) ([]Message, error)
	// MarkSeen flags the given messages as read.
	MarkSeen(context.Context, []uint32) error
	// Close logs out and closes the connection.
	Close() error
}

// Client connects to remote mailboxes.
type Client interface {
	Connect(context.Context, *models.MailboxConfigEntity) (Session, error)
}

// imapClient is the imap implementation of Client.
type imapClient struct{}

// NewClient creates a new imap backed Client.
func NewClient() Client {
	return imapClient{}
}

func (imapClient) Connect(
	ctx context.Context,
	config *models.MailboxConfigEntity,
) (Session, error) {
	addr := net.JoinHostPort(config.Host, strconv.FormatInt(config.Port, 10))
	dialer := &net.Dialer{Timeout: viper.GetDuration("ingest.dialtimeout")}

	log.DebugContext(ctx).
		Str("addr", addr).
		Bool("tls", config.UseTLS).
		Msg("connecting to mailbox")

	conn, err := dial(dialer, addr, config.UseTLS)
	if err != nil {
		return nil, &ConnectionError{Host: config.Host, Err: err}
	}

	if err := conn.Login(config.Username, config.Password); err != nil {
		conn.Logout()
		return nil, &ConnectionError{Host: config.Host, Err: err}
	}

	if _, err := conn.Select(config.Folder, false); err != nil {
		conn.Logout()
		return nil, &ConnectionError{Host: config.Host, Err: err}
	}

	return &imapSession{conn: conn}, nil
}

func dial(dialer *net.Dialer, addr string, useTLS bool) (*client.Client, error) {
	if useTLS {
		return client.DialWithDialerTLS(dialer, addr, nil)
	}

	return client.DialWithDialer(dialer, addr)
}

type imapSession struct {
	conn *client.Client
}

func (s *imapSession) Fetch(ctx context.Context, limit int64) ([]Message, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := s.conn.UidSearch(criteria)
	if err != nil {
		return nil, err
	}

	if len(uids) == 0 {
		return nil, nil
	}

	if limit > 0 && int64(len(uids)) > limit {
		uids = uids[:limit]
	}

	var (
		seqset  = new(imap.SeqSet)
		section = &imap.BodySectionName{Peek: true}
		items   = []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}
	)

	seqset.AddNum(uids...)

	rawMessages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)

	go func() {
		done <- s.conn.UidFetch(seqset, items, rawMessages)
	}()

	var messages []Message

	for raw := range rawMessages {
		messages = append(messages, convertMessage(ctx, raw, section))
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, err
		}
	}

	return messages, nil
}

func (s *imapSession) MarkSeen(ctx context.Context, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}

	return s.conn.UidStore(seqset, item, flags, nil)
}

func (s *imapSession) Close() error {
	return s.conn.Logout()
}

func convertMessage(
	ctx context.Context,
	raw *imap.Message,
	section *imap.BodySectionName,
) Message {
	message := Message{
		UID:        raw.Uid,
		ReceivedAt: time.Now(),
	}

	if envelope := raw.Envelope; envelope != nil {
		message.MessageID = envelope.MessageId
		message.Subject = envelope.Subject

		if !envelope.Date.IsZero() {
			message.ReceivedAt = envelope.Date
		}

		if len(envelope.From) > 0 {
			message.Sender = envelope.From[0].Address()
		}

		if len(envelope.To) > 0 {
			message.Recipient = envelope.To[0].Address()
		}
	}

	// Without a message id deduplication has nothing to key on. A random
	// one at least keeps the mail ingestible.
	if message.MessageID == "" {
		message.MessageID = fmt.Sprintf("<%s@vigilmail.generated>", uuid.NewString())
	}

	if body := raw.GetBody(section); body != nil {
		text, err := extractText(body)
		if err != nil {
			log.WarnContext(ctx).
				Err(err).
				Str("messageId", message.MessageID).
				Msg("could not extract mail body")
		}

		message.Body = text
	}

	return message
}

// extractText returns the first text part of a mail. Attachments and html
// alternatives are skipped.
func extractText(r io.Reader) (string, error) {
	reader, err := mail.CreateReader(r)
	if err != nil {
		return "", err
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return "", nil
		}

		if err != nil {
			return "", err
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, err := header.ContentType()
		if err != nil || !strings.HasPrefix(contentType, "text/") {
			continue
		}

		text, err := io.ReadAll(part.Body)
		if err != nil {
			return "", err
		}

		return string(text), nil
	}
}
