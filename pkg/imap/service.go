package imap

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	meetingdomain "meetsync-backend/internal/meeting/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Service fetches emails over IMAP for accounts that are not OAuth-connected.
// Each call dials a fresh connection; the adapter keeps no session state.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ListMailboxEmails retrieves every message in the mailbox, decoded to plain
// text. An empty mailbox returns an empty slice.
func (s *Service) ListMailboxEmails(ctx context.Context, host, username, password, mailbox string) ([]*meetingdomain.EmailRecord, error) {
	addr := host
	if !strings.Contains(addr, ":") {
		addr += ":993"
	}

	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to IMAP server: %v", err)
	}
	defer c.Logout()

	if err := c.Login(username, password); err != nil {
		return nil, fmt.Errorf("IMAP login failed: %v", err)
	}

	mbox, err := c.Select(mailbox, true)
	if err != nil {
		return nil, fmt.Errorf("unable to select mailbox %q: %v", mailbox, err)
	}

	emails := make([]*meetingdomain.EmailRecord, 0)
	if mbox.Messages == 0 {
		return emails, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(1, mbox.Messages)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	for msg := range messages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := convertMessage(msg, section)
		if err != nil {
			log.Printf("[IMAP] skipping unreadable message uid=%d: %v", msg.Uid, err)
			continue
		}
		emails = append(emails, record)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("unable to fetch messages: %v", err)
	}

	log.Printf("[IMAP] fetched %d messages from %q", len(emails), mailbox)
	return emails, nil
}

func convertMessage(msg *imap.Message, section *imap.BodySectionName) (*meetingdomain.EmailRecord, error) {
	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("server returned no body section")
	}

	mr, err := mail.CreateReader(body)
	if err != nil {
		return nil, fmt.Errorf("unable to parse message: %v", err)
	}

	header := mr.Header
	subject, _ := header.Subject()
	sender := header.Get("From")
	// Raw header value on purpose: grouping sorts on the string as-is.
	date := header.Get("Date")

	var plainBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read message part: %v", err)
		}

		if h, ok := part.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if contentType == "text/plain" || (plainBody == "" && strings.HasPrefix(contentType, "text/")) {
				data, err := io.ReadAll(part.Body)
				if err == nil {
					plainBody = string(data)
				}
				if contentType == "text/plain" {
					break
				}
			}
		}
	}

	id := fmt.Sprintf("%d", msg.Uid)
	if mid := header.Get("Message-Id"); mid != "" {
		id = strings.Trim(mid, "<>")
	}

	return &meetingdomain.EmailRecord{
		ID:      id,
		Subject: subject,
		Sender:  sender,
		Date:    date,
		Body:    plainBody,
	}, nil
}
