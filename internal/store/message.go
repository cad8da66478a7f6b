package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matheus3301/wppmcp/internal/jid"
	"github.com/matheus3301/wppmcp/internal/metrics"
)

// Timestamps are compared as instants through julianday() so rows written
// with different UTC offsets still order correctly.
const messageTime = "julianday(m.timestamp)"

const messageColumns = `m.id, m.chat_jid, COALESCE(c.name, ''), COALESCE(m.sender, ''),
	COALESCE(m.sender_name, ''), COALESCE(m.content, ''), m.timestamp,
	COALESCE(m.is_from_me, 0), COALESCE(m.media_type, ''), COALESCE(m.filename, ''),
	COALESCE(m.file_length, 0)`

const messageFrom = `FROM messages m LEFT JOIN chats c ON c.jid = m.chat_jid`

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*Message, error) {
	var (
		m         Message
		ts        sqlTime
		mediaType string
		filename  string
		length    int64
	)
	err := s.Scan(&m.ID, &m.ChatJID, &m.ChatName, &m.Sender, &m.SenderName, &m.Content,
		&ts, &m.IsFromMe, &mediaType, &filename, &length)
	if err != nil {
		return nil, err
	}
	m.Timestamp = ts.Time
	if mediaType != "" {
		m.Media = &Media{Type: mediaType, Filename: filename, FileLength: length}
	}
	return &m, nil
}

func (db *DB) queryMessages(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ListMessages returns messages matching every set field of f, newest first.
// Ties on timestamp are broken by id so pages never overlap.
func (db *DB) ListMessages(ctx context.Context, f MessageFilter) ([]*Message, error) {
	defer metrics.ObserveQuery("list_messages")()

	var (
		where []string
		args  []any
	)
	if f.After != nil {
		where = append(where, messageTime+" > julianday(?)")
		args = append(args, f.After.UTC())
	}
	if f.Before != nil {
		where = append(where, messageTime+" < julianday(?)")
		args = append(args, f.Before.UTC())
	}
	if f.Sender != "" {
		forms := jid.SenderForms(f.Sender)
		where = append(where, "m.sender IN ("+placeholders(len(forms))+")")
		for _, s := range forms {
			args = append(args, s)
		}
	}
	if f.ChatJID != "" {
		where = append(where, "m.chat_jid = ?")
		args = append(args, f.ChatJID)
	}
	if f.Query != "" {
		where = append(where, `fold(m.content) LIKE fold(?) ESCAPE '\'`)
		args = append(args, likePattern(f.Query))
	}

	q := "SELECT " + messageColumns + " " + messageFrom
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + messageTime + " DESC, m.id DESC, m.chat_jid DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	msgs, err := db.queryMessages(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// GetMessage returns a message by id. When chatJID is empty and the id
// exists in several chats, the most recent one wins. Returns nil, nil when
// absent.
func (db *DB) GetMessage(ctx context.Context, id, chatJID string) (*Message, error) {
	q := "SELECT " + messageColumns + " " + messageFrom + " WHERE m.id = ?"
	args := []any{id}
	if chatJID != "" {
		q += " AND m.chat_jid = ?"
		args = append(args, chatJID)
	}
	q += " ORDER BY " + messageTime + " DESC LIMIT 1"

	m, err := scanMessage(db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// MessageContext returns the message with up to before strictly earlier and
// up to after strictly later messages from the same chat. Fewer are returned
// when the chat history is shorter.
func (db *DB) MessageContext(ctx context.Context, id, chatJID string, before, after int) (*MessageContext, error) {
	defer metrics.ObserveQuery("message_context")()

	target, err := db.GetMessage(ctx, id, chatJID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}

	const anchor = "(SELECT julianday(timestamp) FROM messages WHERE id = ? AND chat_jid = ?)"
	mc := &MessageContext{Message: target}

	if before > 0 {
		q := "SELECT " + messageColumns + " " + messageFrom +
			" WHERE m.chat_jid = ? AND " + messageTime + " < " + anchor +
			" ORDER BY " + messageTime + " DESC, m.id DESC LIMIT ?"
		mc.Before, err = db.queryMessages(ctx, q, target.ChatJID, target.ID, target.ChatJID, before)
		if err != nil {
			return nil, fmt.Errorf("context before: %w", err)
		}
		slices.Reverse(mc.Before)
	}

	if after > 0 {
		q := "SELECT " + messageColumns + " " + messageFrom +
			" WHERE m.chat_jid = ? AND " + messageTime + " > " + anchor +
			" ORDER BY " + messageTime + " ASC, m.id ASC LIMIT ?"
		mc.After, err = db.queryMessages(ctx, q, target.ChatJID, target.ID, target.ChatJID, after)
		if err != nil {
			return nil, fmt.Errorf("context after: %w", err)
		}
	}

	return mc, nil
}

// LastInteraction returns the most recent message sent by the contact or
// exchanged in the contact's direct chat. Returns nil, nil when none exists.
func (db *DB) LastInteraction(ctx context.Context, contact string) (*Message, error) {
	defer metrics.ObserveQuery("last_interaction")()

	forms := jid.SenderForms(contact)
	in := placeholders(len(forms))
	q := "SELECT " + messageColumns + " " + messageFrom +
		" WHERE m.sender IN (" + in + ") OR m.chat_jid IN (" + in + ")" +
		" ORDER BY " + messageTime + " DESC, m.id DESC LIMIT 1"

	args := make([]any, 0, 2*len(forms))
	for range 2 {
		for _, f := range forms {
			args = append(args, f)
		}
	}

	m, err := scanMessage(db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last interaction: %w", err)
	}
	return m, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring LIKE match with ESCAPE '\'.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
