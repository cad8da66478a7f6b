package tools

import (
	"context"

	"github.com/matheus3301/wppmcp/internal/query"
)

type ListMessagesArgs struct {
	After          string `json:"after,omitempty" jsonschema:"Only messages strictly after this ISO-8601 date"`
	Before         string `json:"before,omitempty" jsonschema:"Only messages strictly before this ISO-8601 date"`
	Sender         string `json:"sender_phone_number,omitempty" jsonschema:"Only messages from this phone number or JID"`
	ChatJID        string `json:"chat_jid,omitempty" jsonschema:"Only messages in this chat"`
	Query          string `json:"query,omitempty" jsonschema:"Case-insensitive text the content must contain"`
	Limit          int    `json:"limit,omitempty" jsonschema:"Maximum messages per page (default 20, max 500)"`
	Page           int    `json:"page,omitempty" jsonschema:"Zero-based page number (default 0)"`
	IncludeContext bool   `json:"include_context,omitempty" jsonschema:"Add surrounding messages of each match (default false)"`
	ContextBefore  *int   `json:"context_before,omitempty" jsonschema:"Messages before each match when include_context is set (default 1)"`
	ContextAfter   *int   `json:"context_after,omitempty" jsonschema:"Messages after each match when include_context is set (default 1)"`
}

type MessageList struct {
	Messages []Message `json:"messages"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

func (s *Server) listMessages(ctx context.Context, args ListMessagesArgs) (*MessageList, error) {
	msgs, err := s.query.ListMessages(ctx, query.ListMessagesParams{
		After:          args.After,
		Before:         args.Before,
		Sender:         args.Sender,
		ChatJID:        args.ChatJID,
		Query:          args.Query,
		Limit:          args.Limit,
		Page:           args.Page,
		IncludeContext: args.IncludeContext,
		ContextBefore:  intOr(args.ContextBefore, 1),
		ContextAfter:   intOr(args.ContextAfter, 1),
	})
	if err != nil {
		return nil, err
	}
	limit := args.Limit
	if limit == 0 {
		limit = query.DefaultLimit
	}
	return &MessageList{
		Messages: MessagesToDTO(msgs),
		Page:     args.Page,
		Limit:    min(limit, query.MaxLimit),
	}, nil
}

type MessageContextArgs struct {
	MessageID string `json:"message_id" jsonschema:"ID of the message to expand"`
	ChatJID   string `json:"chat_jid,omitempty" jsonschema:"Chat of the message, needed only when the id repeats across chats"`
	Before    *int   `json:"before,omitempty" jsonschema:"Messages to include before the target (default 5)"`
	After     *int   `json:"after,omitempty" jsonschema:"Messages to include after the target (default 5)"`
}

type MessageContext struct {
	Message Message   `json:"message"`
	Before  []Message `json:"before"`
	After   []Message `json:"after"`
}

func (s *Server) getMessageContext(ctx context.Context, args MessageContextArgs) (*MessageContext, error) {
	mc, err := s.query.MessageContext(ctx, args.MessageID, args.ChatJID,
		intOr(args.Before, query.DefaultContextWindow), intOr(args.After, query.DefaultContextWindow))
	if err != nil {
		return nil, err
	}
	return &MessageContext{
		Message: MessageToDTO(mc.Message),
		Before:  MessagesToDTO(mc.Before),
		After:   MessagesToDTO(mc.After),
	}, nil
}

type LastInteractionArgs struct {
	JID string `json:"jid" jsonschema:"Contact JID or phone number"`
}

type MessageLookup struct {
	Found   bool     `json:"found"`
	Message *Message `json:"message,omitempty"`
}

func (s *Server) getLastInteraction(ctx context.Context, args LastInteractionArgs) (*MessageLookup, error) {
	m, err := s.query.GetLastInteraction(ctx, args.JID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &MessageLookup{}, nil
	}
	dto := MessageToDTO(m)
	return &MessageLookup{Found: true, Message: &dto}, nil
}

func (s *Server) registerQueryTools() {
	addTool(s, "list_messages",
		"Get WhatsApp messages matching all given filters, newest first. Use search_contacts to find a sender's JID and get_message_context to see the conversation around a result. If messages are missing, request_history can sync older ones.",
		s.listMessages)
	addTool(s, "get_message_context",
		"Get the messages immediately before and after a message in the same chat, both in chronological order.",
		s.getMessageContext)
	addTool(s, "get_last_interaction",
		"Get the most recent WhatsApp message involving a contact, either sent by them or in their chat.",
		s.getLastInteraction)
	addTool(s, "list_chats",
		"Get WhatsApp chats, optionally filtered by name or JID, sorted by last activity or name. Group chats end in @g.us; use get_group_info for their participants.",
		s.listChats)
	addTool(s, "get_chat",
		"Get WhatsApp chat metadata by JID.",
		s.getChat)
	addTool(s, "get_direct_chat_by_contact",
		"Get the one-to-one WhatsApp chat with a phone number.",
		s.getDirectChat)
	addTool(s, "get_contact_chats",
		"Get all WhatsApp chats involving a contact, either their direct chat or groups where they sent messages.",
		s.getContactChats)
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
