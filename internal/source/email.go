// Email/IMAP source: a source that filters via protocol semantics
// (UNSEEN search) instead of the shared read-filter, and owns a
// MarkAsRead that mutates the remote mailbox.
//
// Grounded on original_source/src/source/email.rs's get()/parse(): the
// UNSEEN+FROM+SUBJECT/NOT SUBJECT search-string composition, the
// text/plain-preferred body selection, the footer-truncation rule, and
// HTML sanitization before the body is used further. Adapted to Go's
// github.com/emersion/go-imap client and github.com/emersion/go-message
// for MIME parsing, and github.com/microcosm-cc/bluemonday in place of
// email.rs's ammonia sanitizer.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/microcosm-cc/bluemonday"

	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
)

// EmailAuth is the tagged union {Password | GmailOAuth2}. Exactly one
// of Password or OAuth2 is populated.
type EmailAuth struct {
	Password string
	OAuth2   *OAuth2Token
}

// OAuth2Token is the lazily-refreshed Gmail OAuth2 credential: token
// refresh happens only when now >= Expiry.
type OAuth2Token struct {
	AccessToken string
	Expiry      int64 // unix seconds
	Refresher   func(ctx context.Context) (accessToken string, expiry int64, err error)
}

// EmailFilter narrows the IMAP UNSEEN search.
type EmailFilter struct {
	Sender           string
	Subjects         []string
	ExcludeSubjects  []string
}

// EmailSource polls one IMAP mailbox for unseen mail matching Filter.
type EmailSource struct {
	Name     string
	Host     string // host:port
	Username string
	Auth     EmailAuth
	Filter   EmailFilter
	Remove   bool
	Footer   string

	sanitizer *bluemonday.Policy
}

const imapDefaultPort = "993"

func (s *EmailSource) policy() *bluemonday.Policy {
	if s.sanitizer == nil {
		s.sanitizer = bluemonday.StrictPolicy()
	}
	return s.sanitizer
}

// Fetch connects, searches UNSEEN mail per Filter, and returns one
// entry per matching message. An empty search result returns an empty
// slice without erroring.
func (s *EmailSource) Fetch(ctx context.Context) ([]entry.Entry, error) {
	host := s.Host
	if !strings.Contains(host, ":") {
		host = host + ":" + imapDefaultPort
	}

	c, err := client.DialTLS(host, nil)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "email:"+s.Name,
			fmt.Errorf("connect to IMAP: %w", err))
	}
	defer c.Logout()

	password, err := s.resolvePassword(ctx)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceAuth, "email:"+s.Name, err)
	}
	if err := c.Login(s.Username, password); err != nil {
		return nil, ferr.NewSourceError(ferr.SourceAuth, "email:"+s.Name,
			fmt.Errorf("login: %w", err))
	}

	if _, err := c.Select("INBOX", false); err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "email:"+s.Name,
			fmt.Errorf("select INBOX: %w", err))
	}

	criteria := s.buildSearchCriteria()
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "email:"+s.Name,
			fmt.Errorf("uid search: %w", err))
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	fetchErr := make(chan error, 1)
	go func() {
		fetchErr <- c.UidFetch(seqSet, items, messages)
	}()

	var out []entry.Entry
	for msg := range messages {
		e, err := s.parseMessage(msg, section)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	if err := <-fetchErr; err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "email:"+s.Name,
			fmt.Errorf("uid fetch: %w", err))
	}

	if s.Remove {
		storeItem := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.UidStore(seqSet, storeItem, []interface{}{imap.DeletedFlag}, nil); err != nil {
			return nil, ferr.NewSourceError(ferr.SourceTransient, "email:"+s.Name,
				fmt.Errorf("store \\Deleted: %w", err))
		}
		if err := c.Expunge(nil); err != nil {
			return nil, ferr.NewSourceError(ferr.SourceTransient, "email:"+s.Name,
				fmt.Errorf("expunge: %w", err))
		}
	}

	return out, nil
}

func (s *EmailSource) resolvePassword(ctx context.Context) (string, error) {
	if s.Auth.OAuth2 == nil {
		return s.Auth.Password, nil
	}
	tok := s.Auth.OAuth2
	if time.Now().Unix() >= tok.Expiry && tok.Refresher != nil {
		access, expiry, err := tok.Refresher(ctx)
		if err != nil {
			return "", fmt.Errorf("refresh oauth2 token: %w", err)
		}
		tok.AccessToken = access
		tok.Expiry = expiry
	}
	return "oauth2:" + tok.AccessToken, nil
}

// buildSearchCriteria composes UNSEEN + optional FROM/SUBJECT/NOT
// SUBJECT terms, mirroring the original's string concatenation but
// expressed as go-imap's structured SearchCriteria (HEADER-field
// matching stands in for the IMAP FROM/SUBJECT keys, which go-imap
// does not expose directly).
func (s *EmailSource) buildSearchCriteria() *imap.SearchCriteria {
	criteria := &imap.SearchCriteria{
		WithoutFlags: []string{imap.SeenFlag},
		Header:       textproto.MIMEHeader{},
	}
	if s.Filter.Sender != "" {
		criteria.Header.Add("From", s.Filter.Sender)
	}
	for _, subj := range s.Filter.Subjects {
		criteria.Header.Add("Subject", subj)
	}
	for _, subj := range s.Filter.ExcludeSubjects {
		criteria.Not = append(criteria.Not, []*imap.SearchCriteria{{
			Header: textproto.MIMEHeader{"Subject": []string{subj}},
		}})
	}
	return criteria
}

func (s *EmailSource) parseMessage(msg *imap.Message, section *imap.BodySectionName) (entry.Entry, error) {
	raw := msg.GetBody(section)
	if raw == nil {
		return entry.Entry{}, fmt.Errorf("email: message has no body")
	}

	mr, err := mail.CreateReader(raw)
	if err != nil {
		return entry.Entry{}, fmt.Errorf("email: parse message: %w", err)
	}

	subject, _ := mr.Header.Subject()
	body, err := selectBody(mr)
	if err != nil {
		return entry.Entry{}, err
	}

	if s.Footer != "" {
		if idx := strings.Index(body, s.Footer); idx >= 0 {
			body = body[:idx]
		}
	}
	body = s.policy().Sanitize(body)

	text := body
	if subject != "" {
		text = subject + "\n\n" + body
	}

	e := entry.Entry{ID: strconv.FormatUint(uint64(msg.Uid), 10)}
	e.Msg.Title = subject
	e.Msg.Body = text
	return e, nil
}

// selectBody prefers the first text/plain part, falls back to the
// first part, falls back to an empty body if the message has none.
func selectBody(mr *mail.Reader) (string, error) {
	var first string
	haveFirst := false
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("email: read part: %w", err)
		}
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			buf := new(bytes.Buffer)
			if _, err := io.Copy(buf, part.Body); err != nil {
				continue
			}
			if ct == "text/plain" {
				return buf.String(), nil
			}
			if !haveFirst {
				first = buf.String()
				haveFirst = true
			}
		}
	}
	return first, nil
}

// MarkAsRead implements ServerSideMarker: it's a no-op because Fetch
// already consumes \Seen via UNSEEN search and, when Remove is set,
// expunges matched messages; there is no separate per-entry ack.
func (s *EmailSource) MarkAsRead(ctx context.Context, id string) error {
	return nil
}
