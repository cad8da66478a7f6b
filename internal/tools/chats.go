package tools

import (
	"context"

	"github.com/matheus3301/wppmcp/internal/query"
	"github.com/matheus3301/wppmcp/internal/store"
)

type ListChatsArgs struct {
	Query              string `json:"query,omitempty" jsonschema:"Text the chat name or JID must contain"`
	Limit              int    `json:"limit,omitempty" jsonschema:"Maximum chats per page (default 20, max 500)"`
	Page               int    `json:"page,omitempty" jsonschema:"Zero-based page number (default 0)"`
	IncludeLastMessage *bool  `json:"include_last_message,omitempty" jsonschema:"Include each chat's last message (default true)"`
	SortBy             string `json:"sort_by,omitempty" jsonschema:"last_active (default) or name"`
}

type ChatList struct {
	Chats []Chat `json:"chats"`
}

func (s *Server) listChats(ctx context.Context, args ListChatsArgs) (*ChatList, error) {
	chats, err := s.query.ListChats(ctx, query.ListChatsParams{
		Query:              args.Query,
		Limit:              args.Limit,
		Page:               args.Page,
		IncludeLastMessage: boolOr(args.IncludeLastMessage, true),
		SortBy:             args.SortBy,
	})
	if err != nil {
		return nil, err
	}
	return &ChatList{Chats: ChatsToDTO(chats)}, nil
}

type GetChatArgs struct {
	ChatJID            string `json:"chat_jid" jsonschema:"JID of the chat"`
	IncludeLastMessage *bool  `json:"include_last_message,omitempty" jsonschema:"Include the last message (default true)"`
}

type ChatLookup struct {
	Found bool  `json:"found"`
	Chat  *Chat `json:"chat,omitempty"`
}

func chatLookup(c *store.Chat) *ChatLookup {
	if c == nil {
		return &ChatLookup{}
	}
	dto := ChatToDTO(c)
	return &ChatLookup{Found: true, Chat: &dto}
}

func (s *Server) getChat(ctx context.Context, args GetChatArgs) (*ChatLookup, error) {
	c, err := s.query.GetChat(ctx, args.ChatJID, boolOr(args.IncludeLastMessage, true))
	if err != nil {
		return nil, err
	}
	return chatLookup(c), nil
}

type DirectChatArgs struct {
	SenderPhoneNumber string `json:"sender_phone_number" jsonschema:"Phone number of the contact, digits only"`
}

func (s *Server) getDirectChat(ctx context.Context, args DirectChatArgs) (*ChatLookup, error) {
	c, err := s.query.GetDirectChatByContact(ctx, args.SenderPhoneNumber)
	if err != nil {
		return nil, err
	}
	return chatLookup(c), nil
}

type ContactChatsArgs struct {
	JID   string `json:"jid" jsonschema:"Contact JID or phone number"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum chats per page (default 20, max 500)"`
	Page  int    `json:"page,omitempty" jsonschema:"Zero-based page number (default 0)"`
}

func (s *Server) getContactChats(ctx context.Context, args ContactChatsArgs) (*ChatList, error) {
	chats, err := s.query.GetContactChats(ctx, args.JID, args.Limit, args.Page)
	if err != nil {
		return nil, err
	}
	return &ChatList{Chats: ChatsToDTO(chats)}, nil
}
