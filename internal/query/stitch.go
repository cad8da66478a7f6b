package query

import (
	"context"
	"errors"

	"github.com/matheus3301/wppmcp/internal/store"
)

// ContextSource fetches the context window around one message.
type ContextSource interface {
	MessageContext(ctx context.Context, id, chatJID string, before, after int) (*store.MessageContext, error)
}

// Stitch expands every match with its surrounding messages. Matches are
// visited in the given order; for each one the unseen preceding messages,
// the match itself and the unseen following messages are appended. A
// message is emitted at most once across the whole result, so overlapping
// windows collapse. Identity is (chat_jid, id): the store keys messages that
// way and the same id can occur in two chats, so both are kept. The result
// is not re-sorted.
func Stitch(ctx context.Context, src ContextSource, matches []*store.Message, before, after int) ([]*store.Message, error) {
	seen := make(map[messageKey]bool, len(matches)*(1+before+after))
	out := make([]*store.Message, 0, len(matches)*(1+before+after))

	emit := func(m *store.Message) {
		k := keyOf(m)
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, m)
	}

	for _, match := range matches {
		mc, err := src.MessageContext(ctx, match.ID, match.ChatJID, before, after)
		if errors.Is(err, store.ErrMessageNotFound) {
			// Deleted between the listing and the context fetch.
			emit(match)
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, m := range mc.Before {
			emit(m)
		}
		emit(mc.Message)
		for _, m := range mc.After {
			emit(m)
		}
	}
	return out, nil
}

// Message ids are only unique within a chat.
type messageKey struct {
	chatJID string
	id      string
}

func keyOf(m *store.Message) messageKey {
	return messageKey{chatJID: m.ChatJID, id: m.ID}
}
