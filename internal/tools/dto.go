package tools

import (
	"time"

	"github.com/matheus3301/wppmcp/internal/jid"
	"github.com/matheus3301/wppmcp/internal/query"
	"github.com/matheus3301/wppmcp/internal/store"
)

// Message is the wire form of a stored message.
type Message struct {
	ID         string `json:"id"`
	ChatJID    string `json:"chat_jid"`
	ChatName   string `json:"chat_name,omitempty"`
	Sender     string `json:"sender"`
	SenderName string `json:"sender_name,omitempty"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	IsFromMe   bool   `json:"is_from_me"`
	MediaType  string `json:"media_type,omitempty"`
	Filename   string `json:"filename,omitempty"`
	FileLength int64  `json:"file_length,omitempty"`
}

type Chat struct {
	JID             string   `json:"jid"`
	Name            string   `json:"name,omitempty"`
	IsGroup         bool     `json:"is_group"`
	LastMessageTime string   `json:"last_message_time,omitempty"`
	LastMessage     *Message `json:"last_message,omitempty"`
}

type Contact struct {
	JID          string `json:"jid"`
	PhoneNumber  string `json:"phone_number"`
	Name         string `json:"name"`
	NameSource   string `json:"name_source"`
	Nickname     string `json:"nickname,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	PushName     string `json:"push_name,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
}

type Nickname struct {
	JID       string `json:"jid"`
	Nickname  string `json:"nickname"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// MessageToDTO converts a stored message to its wire form.
func MessageToDTO(m *store.Message) Message {
	out := Message{
		ID:         m.ID,
		ChatJID:    m.ChatJID,
		ChatName:   m.ChatName,
		Sender:     m.Sender,
		SenderName: m.SenderName,
		Content:    m.Content,
		Timestamp:  formatTime(m.Timestamp),
		IsFromMe:   m.IsFromMe,
	}
	if m.Media != nil {
		out.MediaType = m.Media.Type
		out.Filename = m.Media.Filename
		out.FileLength = m.Media.FileLength
	}
	return out
}

// MessagesToDTO never returns nil, so empty lists encode as [].
func MessagesToDTO(msgs []*store.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageToDTO(m))
	}
	return out
}

// ChatToDTO converts a stored chat, including its last message when loaded.
func ChatToDTO(c *store.Chat) Chat {
	out := Chat{
		JID:     c.JID,
		Name:    c.Name,
		IsGroup: jid.IsGroup(c.JID),
	}
	if c.LastMessageTime != nil {
		out.LastMessageTime = formatTime(*c.LastMessageTime)
	}
	if c.LastMessage != nil {
		m := MessageToDTO(c.LastMessage)
		out.LastMessage = &m
	}
	return out
}

func ChatsToDTO(chats []*store.Chat) []Chat {
	out := make([]Chat, 0, len(chats))
	for _, c := range chats {
		out = append(out, ChatToDTO(c))
	}
	return out
}

func ContactToDTO(c *query.Contact) Contact {
	return Contact{
		JID:          c.JID,
		PhoneNumber:  c.PhoneNumber,
		Name:         c.Name,
		NameSource:   string(c.NameSource),
		Nickname:     c.Nickname,
		FirstName:    c.FirstName,
		FullName:     c.FullName,
		PushName:     c.PushName,
		BusinessName: c.BusinessName,
	}
}

func ContactsToDTO(list []*query.Contact) []Contact {
	out := make([]Contact, 0, len(list))
	for _, c := range list {
		out = append(out, ContactToDTO(c))
	}
	return out
}

func NicknameToDTO(n *store.Nickname) Nickname {
	return Nickname{
		JID:       n.JID,
		Nickname:  n.Nickname,
		CreatedAt: formatTime(n.CreatedAt),
		UpdatedAt: formatTime(n.UpdatedAt),
	}
}
