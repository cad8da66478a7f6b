package query

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/matheus3301/wppmcp/internal/jid"
	"github.com/matheus3301/wppmcp/internal/roster"
	"github.com/matheus3301/wppmcp/internal/store"
	"github.com/matheus3301/wppmcp/internal/validate"
)

const (
	DefaultLimit         = 20
	MaxLimit             = 500
	DefaultContextWindow = 5
	SearchContactsLimit  = 50
	DefaultContactsLimit = 100
)

// Service answers read-only questions about the synced history by joining
// messages.db with the contact roster.
type Service struct {
	db     *store.DB
	roster *roster.Roster
	log    *zap.Logger
}

// NewService creates a query service over an open store and roster.
func NewService(db *store.DB, r *roster.Roster, log *zap.Logger) *Service {
	return &Service{db: db, roster: r, log: log}
}

// Contact is a roster entry with its local nickname and resolved name.
type Contact struct {
	roster.Contact
	Nickname   string
	Name       string
	NameSource roster.NameSource
}

// ListMessagesParams filters ListMessages. Dates are ISO-8601 strings.
type ListMessagesParams struct {
	After          string
	Before         string
	Sender         string
	ChatJID        string
	Query          string
	Limit          int
	Page           int
	IncludeContext bool
	ContextBefore  int
	ContextAfter   int
}

// pageWindow applies the default limit and the cap, and rejects negatives.
// A page whose offset would overflow is rejected rather than wrapped.
func pageWindow(limit, page int) (int, int, error) {
	if err := validate.First(
		validate.NonNegative("limit", limit),
		validate.NonNegative("page", page),
	); err != nil {
		return 0, 0, err
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if err := validate.Range("page", page, 0, math.MaxInt/limit); err != nil {
		return 0, 0, err
	}
	return limit, page * limit, nil
}

// ListMessages returns one page of messages, newest first. With
// IncludeContext the page is expanded by Stitch.
func (s *Service) ListMessages(ctx context.Context, p ListMessagesParams) ([]*store.Message, error) {
	after, err := ParseTime("after", p.After)
	if err != nil {
		return nil, err
	}
	before, err := ParseTime("before", p.Before)
	if err != nil {
		return nil, err
	}
	limit, offset, err := pageWindow(p.Limit, p.Page)
	if err != nil {
		return nil, err
	}
	if p.IncludeContext {
		if err := validate.First(
			validate.Range("context_before", p.ContextBefore, 0, MaxLimit),
			validate.Range("context_after", p.ContextAfter, 0, MaxLimit),
		); err != nil {
			return nil, err
		}
	}

	msgs, err := s.db.ListMessages(ctx, store.MessageFilter{
		After:   after,
		Before:  before,
		Sender:  p.Sender,
		ChatJID: p.ChatJID,
		Query:   p.Query,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, err
	}

	if p.IncludeContext && len(msgs) > 0 {
		msgs, err = Stitch(ctx, s.db, msgs, p.ContextBefore, p.ContextAfter)
		if err != nil {
			return nil, fmt.Errorf("stitch context: %w", err)
		}
	}

	s.resolveSenders(ctx, msgs...)
	return msgs, nil
}

// MessageContext returns the window around one message. chatJID may be empty.
func (s *Service) MessageContext(ctx context.Context, id, chatJID string, before, after int) (*store.MessageContext, error) {
	if err := validate.First(
		validate.Required("message_id", id),
		validate.Range("before", before, 0, MaxLimit),
		validate.Range("after", after, 0, MaxLimit),
	); err != nil {
		return nil, err
	}

	mc, err := s.db.MessageContext(ctx, id, chatJID, before, after)
	if err != nil {
		return nil, err
	}

	all := make([]*store.Message, 0, 1+len(mc.Before)+len(mc.After))
	all = append(all, mc.Before...)
	all = append(all, mc.Message)
	all = append(all, mc.After...)
	s.resolveSenders(ctx, all...)
	return mc, nil
}

// ListChatsParams filters ListChats.
type ListChatsParams struct {
	Query              string
	Limit              int
	Page               int
	IncludeLastMessage bool
	SortBy             string
}

// ListChats returns one page of chats.
func (s *Service) ListChats(ctx context.Context, p ListChatsParams) ([]*store.Chat, error) {
	if p.SortBy == "" {
		p.SortBy = store.SortLastActive
	}
	if err := validate.OneOf("sort_by", p.SortBy, store.SortLastActive, store.SortName); err != nil {
		return nil, err
	}
	limit, offset, err := pageWindow(p.Limit, p.Page)
	if err != nil {
		return nil, err
	}

	chats, err := s.db.ListChats(ctx, store.ChatFilter{
		Query:  p.Query,
		SortBy: p.SortBy,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	s.finishChats(ctx, p.IncludeLastMessage, chats...)
	return chats, nil
}

// GetChat returns a chat or nil when it does not exist.
func (s *Service) GetChat(ctx context.Context, chatJID string, includeLast bool) (*store.Chat, error) {
	if err := validate.Required("chat_jid", chatJID); err != nil {
		return nil, err
	}
	c, err := s.db.GetChat(ctx, chatJID)
	if err != nil || c == nil {
		return nil, err
	}
	s.finishChats(ctx, includeLast, c)
	return c, nil
}

// GetDirectChatByContact returns the one-to-one chat with a phone number, or
// nil when there is none.
func (s *Service) GetDirectChatByContact(ctx context.Context, phone string) (*store.Chat, error) {
	if err := validate.Required("sender_phone_number", phone); err != nil {
		return nil, err
	}
	c, err := s.db.GetDirectChat(ctx, phone)
	if err != nil || c == nil {
		return nil, err
	}
	s.finishChats(ctx, true, c)
	return c, nil
}

// GetContactChats returns chats where the contact is the chat itself or has
// sent a message.
func (s *Service) GetContactChats(ctx context.Context, contact string, limit, page int) ([]*store.Chat, error) {
	if err := validate.Required("jid", contact); err != nil {
		return nil, err
	}
	limit, offset, err := pageWindow(limit, page)
	if err != nil {
		return nil, err
	}
	chats, err := s.db.ListChats(ctx, store.ChatFilter{
		Involving: contact,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, err
	}
	s.finishChats(ctx, true, chats...)
	return chats, nil
}

// GetLastInteraction returns the newest message involving the contact, or
// nil when there is none.
func (s *Service) GetLastInteraction(ctx context.Context, contact string) (*store.Message, error) {
	if err := validate.Required("jid", contact); err != nil {
		return nil, err
	}
	m, err := s.db.LastInteraction(ctx, contact)
	if err != nil || m == nil {
		return nil, err
	}
	s.resolveSenders(ctx, m)
	return m, nil
}

func (s *Service) finishChats(ctx context.Context, includeLast bool, chats ...*store.Chat) {
	var last []*store.Message
	for _, c := range chats {
		if !includeLast {
			c.LastMessage = nil
			continue
		}
		if c.LastMessage != nil {
			last = append(last, c.LastMessage)
		}
	}
	s.resolveSenders(ctx, last...)
}

// resolveSenders fills SenderName where the bridge did not store one. A
// failed lookup only costs the friendly name, so it is logged, not returned.
func (s *Service) resolveSenders(ctx context.Context, msgs ...*store.Message) {
	var pending []string
	want := make(map[string]bool)
	for _, m := range msgs {
		if m.SenderName != "" || m.Sender == "" {
			continue
		}
		j := senderJID(m.Sender)
		if !want[j] {
			want[j] = true
			pending = append(pending, j)
		}
	}
	if len(pending) == 0 {
		return
	}

	contacts, err := s.roster.Lookup(ctx, pending)
	if err != nil {
		s.log.Warn("resolve sender names", zap.Error(err))
		contacts = nil
	}
	nicknames, err := s.db.NicknameMap(ctx)
	if err != nil {
		s.log.Warn("load nicknames", zap.Error(err))
		nicknames = nil
	}

	for _, m := range msgs {
		if m.SenderName != "" || m.Sender == "" {
			continue
		}
		j := senderJID(m.Sender)
		m.SenderName, _ = roster.DisplayName(contacts[j], nicknames[j], jid.Phone(j))
	}
}

// senderJID turns a stored sender (bare user or full JID) into a full JID.
func senderJID(sender string) string {
	j, err := jid.Parse(sender)
	if err != nil {
		return sender
	}
	return j.String()
}
