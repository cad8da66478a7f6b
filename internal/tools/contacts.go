package tools

import (
	"context"

	"github.com/matheus3301/wppmcp/internal/query"
)

type SearchContactsArgs struct {
	Query string `json:"query" jsonschema:"Text to match against contact names or phone numbers"`
}

type ContactList struct {
	Contacts []Contact `json:"contacts"`
}

func (s *Server) searchContacts(ctx context.Context, args SearchContactsArgs) (*ContactList, error) {
	list, err := s.query.SearchContacts(ctx, args.Query)
	if err != nil {
		return nil, err
	}
	return &ContactList{Contacts: ContactsToDTO(list)}, nil
}

type ContactArgs struct {
	Identifier string `json:"identifier" jsonschema:"Contact JID or phone number"`
}

type ContactByPhoneArgs struct {
	PhoneNumber string `json:"phone_number" jsonschema:"Phone number, with or without a leading +"`
}

type ContactLookup struct {
	Found   bool     `json:"found"`
	Contact *Contact `json:"contact,omitempty"`
}

func contactLookup(c *query.Contact) *ContactLookup {
	if c == nil {
		return &ContactLookup{}
	}
	dto := ContactToDTO(c)
	return &ContactLookup{Found: true, Contact: &dto}
}

func (s *Server) getContactDetails(ctx context.Context, args ContactArgs) (*ContactLookup, error) {
	c, err := s.query.GetContact(ctx, args.Identifier)
	if err != nil {
		return nil, err
	}
	return contactLookup(c), nil
}

func (s *Server) getContactByPhone(ctx context.Context, args ContactByPhoneArgs) (*ContactLookup, error) {
	c, err := s.query.GetContactByPhone(ctx, args.PhoneNumber)
	if err != nil {
		return nil, err
	}
	return contactLookup(c), nil
}

type ListContactsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum contacts to return (default 100, max 500)"`
}

func (s *Server) listAllContacts(ctx context.Context, args ListContactsArgs) (*ContactList, error) {
	list, err := s.query.ListAllContacts(ctx, args.Limit)
	if err != nil {
		return nil, err
	}
	return &ContactList{Contacts: ContactsToDTO(list)}, nil
}

type SetNicknameArgs struct {
	JID      string `json:"jid" jsonschema:"Contact JID or phone number"`
	Nickname string `json:"nickname" jsonschema:"Name to show for this contact"`
}

type NicknameArgs struct {
	JID string `json:"jid" jsonschema:"Contact JID or phone number"`
}

type NicknameLookup struct {
	Found    bool      `json:"found"`
	Nickname *Nickname `json:"nickname,omitempty"`
}

type NicknameRemoval struct {
	JID     string `json:"jid"`
	Removed bool   `json:"removed"`
}

type NicknameList struct {
	Nicknames []Nickname `json:"nicknames"`
}

func (s *Server) setNickname(ctx context.Context, args SetNicknameArgs) (*NicknameLookup, error) {
	n, err := s.query.SetNickname(ctx, args.JID, args.Nickname)
	if err != nil {
		return nil, err
	}
	dto := NicknameToDTO(n)
	return &NicknameLookup{Found: true, Nickname: &dto}, nil
}

func (s *Server) getNickname(ctx context.Context, args NicknameArgs) (*NicknameLookup, error) {
	n, err := s.query.GetNickname(ctx, args.JID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return &NicknameLookup{}, nil
	}
	dto := NicknameToDTO(n)
	return &NicknameLookup{Found: true, Nickname: &dto}, nil
}

func (s *Server) removeNickname(ctx context.Context, args NicknameArgs) (*NicknameRemoval, error) {
	j, removed, err := s.query.RemoveNickname(ctx, args.JID)
	if err != nil {
		return nil, err
	}
	return &NicknameRemoval{JID: j, Removed: removed}, nil
}

func (s *Server) listNicknames(ctx context.Context, _ noArgs) (*NicknameList, error) {
	list, err := s.query.ListNicknames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Nickname, 0, len(list))
	for _, n := range list {
		out = append(out, NicknameToDTO(n))
	}
	return &NicknameList{Nicknames: out}, nil
}

func (s *Server) registerContactTools() {
	addTool(s, "search_contacts",
		"Search WhatsApp contacts by name or phone number. Use the returned jid with list_messages or get_last_interaction.",
		s.searchContacts)
	addTool(s, "get_contact_details",
		"Get a contact's names, nickname and phone number by JID or phone number.",
		s.getContactDetails)
	addTool(s, "get_contact_by_phone",
		"Get a contact by phone number.",
		s.getContactByPhone)
	addTool(s, "list_all_contacts",
		"List WhatsApp contacts with their resolved display names.",
		s.listAllContacts)
	addTool(s, "set_nickname",
		"Set a local nickname for a contact. Nicknames take precedence over WhatsApp names everywhere.",
		s.setNickname)
	addTool(s, "get_nickname",
		"Get the local nickname of a contact.",
		s.getNickname)
	addTool(s, "remove_nickname",
		"Remove the local nickname of a contact.",
		s.removeNickname)
	addTool(s, "list_nicknames",
		"List all local contact nicknames.",
		s.listNicknames)
}
