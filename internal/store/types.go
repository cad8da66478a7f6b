package store

import (
	"errors"
	"time"
)

// ErrMessageNotFound is returned when a message id does not exist.
var ErrMessageNotFound = errors.New("message not found")

// Message represents a row of the bridge messages table joined with its chat.
type Message struct {
	ID         string
	ChatJID    string
	ChatName   string
	Sender     string
	SenderName string
	Content    string
	Timestamp  time.Time
	IsFromMe   bool
	Media      *Media
}

// Media describes an attachment. Nil on a Message without one.
type Media struct {
	Type       string
	Filename   string
	FileLength int64
}

// Chat represents a chat with its most recent message, when one exists.
type Chat struct {
	JID             string
	Name            string
	LastMessageTime *time.Time
	LastMessage     *Message
}

// Nickname is a locally assigned display name for a contact.
type Nickname struct {
	JID       string
	Nickname  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MessageFilter selects messages. Zero-valued fields do not constrain.
type MessageFilter struct {
	After   *time.Time
	Before  *time.Time
	Sender  string
	ChatJID string
	Query   string
	Limit   int
	Offset  int
}

// MessageContext is a message with the messages surrounding it in the same
// chat, both sides in ascending time order.
type MessageContext struct {
	Message *Message
	Before  []*Message
	After   []*Message
}

// Chat sort orders.
const (
	SortLastActive = "last_active"
	SortName       = "name"
)

// ChatFilter selects chats. Involving restricts to chats where the JID is the
// chat itself or appears as a sender.
type ChatFilter struct {
	Query     string
	Involving string
	SortBy    string
	Limit     int
	Offset    int
}
