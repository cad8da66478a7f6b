package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/matheus3301/wppmcp/internal/jid"
	"github.com/matheus3301/wppmcp/internal/metrics"
)

// chatSelect joins every chat with its newest message. The activity key is
// recomputed from messages and only falls back to chats.last_message_time
// for chats without any stored message.
const chatSelect = `
WITH last AS (
	SELECT chat_jid, id, timestamp, content, sender, sender_name, is_from_me,
	       media_type, filename, file_length,
	       ROW_NUMBER() OVER (
	           PARTITION BY chat_jid ORDER BY julianday(timestamp) DESC, id DESC
	       ) AS rn
	FROM messages
)
SELECT c.jid, COALESCE(c.name, ''), c.last_message_time,
       l.id, l.timestamp, COALESCE(l.content, ''), COALESCE(l.sender, ''),
       COALESCE(l.sender_name, ''), COALESCE(l.is_from_me, 0),
       COALESCE(l.media_type, ''), COALESCE(l.filename, ''), COALESCE(l.file_length, 0)
FROM chats c
LEFT JOIN last l ON l.chat_jid = c.jid AND l.rn = 1`

const chatActivity = "COALESCE(julianday(l.timestamp), julianday(c.last_message_time))"

func scanChat(s scanner) (*Chat, error) {
	var (
		c         Chat
		lastTime  sqlTime
		msgID     sql.NullString
		msgTime   sqlTime
		content   string
		sender    string
		senderNm  string
		fromMe    bool
		mediaType string
		filename  string
		length    int64
	)
	err := s.Scan(&c.JID, &c.Name, &lastTime, &msgID, &msgTime, &content, &sender,
		&senderNm, &fromMe, &mediaType, &filename, &length)
	if err != nil {
		return nil, err
	}
	c.LastMessageTime = lastTime.ptr()
	if msgID.Valid {
		m := &Message{
			ID:         msgID.String,
			ChatJID:    c.JID,
			ChatName:   c.Name,
			Sender:     sender,
			SenderName: senderNm,
			Content:    content,
			Timestamp:  msgTime.Time,
			IsFromMe:   fromMe,
		}
		if mediaType != "" {
			m.Media = &Media{Type: mediaType, Filename: filename, FileLength: length}
		}
		c.LastMessage = m
		c.LastMessageTime = msgTime.ptr()
	}
	return &c, nil
}

func (db *DB) queryChats(ctx context.Context, query string, args ...any) ([]*Chat, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// ListChats returns chats matching f. Chats sort by most recent activity
// unless f.SortBy is SortName; ties are broken by jid.
func (db *DB) ListChats(ctx context.Context, f ChatFilter) ([]*Chat, error) {
	defer metrics.ObserveQuery("list_chats")()

	var (
		where []string
		args  []any
	)
	if f.Query != "" {
		where = append(where, `(fold(c.name) LIKE fold(?) ESCAPE '\' OR fold(c.jid) LIKE fold(?) ESCAPE '\')`)
		p := likePattern(f.Query)
		args = append(args, p, p)
	}
	if f.Involving != "" {
		forms := jid.SenderForms(f.Involving)
		in := placeholders(len(forms))
		where = append(where, "(c.jid IN ("+in+") OR EXISTS (SELECT 1 FROM messages mm WHERE mm.chat_jid = c.jid AND mm.sender IN ("+in+")))")
		for range 2 {
			for _, s := range forms {
				args = append(args, s)
			}
		}
	}

	q := chatSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.SortBy == SortName {
		q += " ORDER BY COALESCE(c.name, '') = '', c.name COLLATE NOCASE ASC, c.jid ASC"
	} else {
		q += " ORDER BY " + chatActivity + " DESC NULLS LAST, c.jid ASC"
	}
	q += " LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	chats, err := db.queryChats(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// GetChat returns a chat by jid. Returns nil, nil when not found.
func (db *DB) GetChat(ctx context.Context, chatJID string) (*Chat, error) {
	defer metrics.ObserveQuery("get_chat")()

	chats, err := db.queryChats(ctx, chatSelect+" WHERE c.jid = ?", chatJID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if len(chats) == 0 {
		return nil, nil
	}
	return chats[0], nil
}

// GetDirectChat returns the one-to-one chat with the given phone number.
// Returns nil, nil when not found.
func (db *DB) GetDirectChat(ctx context.Context, phone string) (*Chat, error) {
	defer metrics.ObserveQuery("get_direct_chat")()

	q := chatSelect + ` WHERE c.jid LIKE ? ESCAPE '\' AND c.jid NOT LIKE '%@g.us'` +
		" ORDER BY " + chatActivity + " DESC NULLS LAST, c.jid ASC LIMIT 1"
	pattern := likeEscaper.Replace(jid.Phone(phone)) + "@%"

	chats, err := db.queryChats(ctx, q, pattern)
	if err != nil {
		return nil, fmt.Errorf("get direct chat: %w", err)
	}
	if len(chats) == 0 {
		return nil, nil
	}
	return chats[0], nil
}
