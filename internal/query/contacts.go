package query

import (
	"context"

	"github.com/matheus3301/wppmcp/internal/jid"
	"github.com/matheus3301/wppmcp/internal/roster"
	"github.com/matheus3301/wppmcp/internal/store"
	"github.com/matheus3301/wppmcp/internal/validate"
)

// SearchContacts matches query against names and JIDs, up to
// SearchContactsLimit results.
func (s *Service) SearchContacts(ctx context.Context, query string) ([]*Contact, error) {
	if err := validate.Required("query", query); err != nil {
		return nil, err
	}
	list, err := s.roster.Search(ctx, query, SearchContactsLimit)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, list)
}

// GetContact resolves a JID or phone number. Returns nil when the roster has
// no such contact.
func (s *Service) GetContact(ctx context.Context, identifier string) (*Contact, error) {
	if err := validate.Required("identifier", identifier); err != nil {
		return nil, err
	}
	c, err := s.roster.Resolve(ctx, identifier)
	if err != nil || c == nil {
		return nil, err
	}
	out, err := s.decorate(ctx, []*roster.Contact{c})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// GetContactByPhone looks a contact up by phone number only. Returns nil when
// the roster has no such contact.
func (s *Service) GetContactByPhone(ctx context.Context, phone string) (*Contact, error) {
	if err := validate.Required("phone_number", phone); err != nil {
		return nil, err
	}
	c, err := s.roster.ByPhone(ctx, jid.Phone(phone))
	if err != nil || c == nil {
		return nil, err
	}
	out, err := s.decorate(ctx, []*roster.Contact{c})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ListAllContacts returns up to limit contacts. Zero means
// DefaultContactsLimit.
func (s *Service) ListAllContacts(ctx context.Context, limit int) ([]*Contact, error) {
	if err := validate.NonNegative("limit", limit); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultContactsLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	list, err := s.roster.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, list)
}

func (s *Service) decorate(ctx context.Context, list []*roster.Contact) ([]*Contact, error) {
	nicknames, err := s.db.NicknameMap(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Contact, 0, len(list))
	for _, c := range list {
		nick := nicknames[c.JID]
		name, src := roster.DisplayName(c, nick, c.PhoneNumber)
		out = append(out, &Contact{Contact: *c, Nickname: nick, Name: name, NameSource: src})
	}
	return out, nil
}

// normalizeJID validates and canonicalizes a contact JID or phone number.
func normalizeJID(field, s string) (string, error) {
	if err := validate.Required(field, s); err != nil {
		return "", err
	}
	j, err := jid.Parse(s)
	if err != nil {
		return "", &validate.Error{Field: field, Value: s, Reason: err.Error()}
	}
	return j.String(), nil
}

// SetNickname stores a nickname for a contact.
func (s *Service) SetNickname(ctx context.Context, contact, nickname string) (*store.Nickname, error) {
	j, err := normalizeJID("jid", contact)
	if err != nil {
		return nil, err
	}
	if err := validate.Required("nickname", nickname); err != nil {
		return nil, err
	}
	return s.db.SetNickname(ctx, j, nickname)
}

// GetNickname returns the nickname for a contact, or nil when none is set.
func (s *Service) GetNickname(ctx context.Context, contact string) (*store.Nickname, error) {
	j, err := normalizeJID("jid", contact)
	if err != nil {
		return nil, err
	}
	return s.db.GetNickname(ctx, j)
}

// RemoveNickname deletes a contact's nickname and reports whether one existed.
func (s *Service) RemoveNickname(ctx context.Context, contact string) (string, bool, error) {
	j, err := normalizeJID("jid", contact)
	if err != nil {
		return "", false, err
	}
	removed, err := s.db.RemoveNickname(ctx, j)
	return j, removed, err
}

// ListNicknames returns every stored nickname ordered by JID.
func (s *Service) ListNicknames(ctx context.Context) ([]*store.Nickname, error) {
	return s.db.ListNicknames(ctx)
}
