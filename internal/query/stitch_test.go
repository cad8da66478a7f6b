package query

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/matheus3301/wppmcp/internal/store"
)

// fakeSource serves context windows from in-memory chats whose messages are
// held in ascending time order.
type fakeSource struct {
	chats map[string][]*store.Message
	calls int
	err   error
}

func newFakeSource(chat string, n int) *fakeSource {
	src := &fakeSource{chats: map[string][]*store.Message{}}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		src.chats[chat] = append(src.chats[chat], &store.Message{
			ID:        fmt.Sprintf("m%d", i),
			ChatJID:   chat,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return src
}

func (f *fakeSource) MessageContext(_ context.Context, id, chatJID string, before, after int) (*store.MessageContext, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	msgs := f.chats[chatJID]
	for i, m := range msgs {
		if m.ID != id {
			continue
		}
		lo := max(0, i-before)
		hi := min(len(msgs), i+1+after)
		return &store.MessageContext{
			Message: m,
			Before:  slices.Clone(msgs[lo:i]),
			After:   slices.Clone(msgs[i+1 : hi]),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", store.ErrMessageNotFound, id)
}

func (f *fakeSource) get(chat, id string) *store.Message {
	for _, m := range f.chats[chat] {
		if m.ID == id {
			return m
		}
	}
	panic("no message " + id)
}

func messageIDs(msgs []*store.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestStitchDeduplicatesOverlappingWindows(t *testing.T) {
	src := newFakeSource("c", 10)
	matches := []*store.Message{src.get("c", "m7"), src.get("c", "m5")}

	got, err := Stitch(context.Background(), src, matches, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"m5", "m6", "m7", "m8", "m9", "m3", "m4"}
	if !slices.Equal(messageIDs(got), want) {
		t.Errorf("stitched = %v, want %v", messageIDs(got), want)
	}
}

func TestStitchEachMessageOnce(t *testing.T) {
	src := newFakeSource("c", 6)
	var matches []*store.Message
	for _, id := range []string{"m6", "m5", "m4", "m3", "m2", "m1"} {
		matches = append(matches, src.get("c", id))
	}

	got, err := Stitch(context.Background(), src, matches, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 6 {
		t.Fatalf("got %d messages, want 6: %v", len(got), messageIDs(got))
	}
	seen := map[string]bool{}
	for _, m := range got {
		if seen[m.ID] {
			t.Fatalf("duplicate %s in %v", m.ID, messageIDs(got))
		}
		seen[m.ID] = true
	}
	if src.calls != 6 {
		t.Errorf("context fetched %d times, want 6", src.calls)
	}
}

func TestStitchKeysByChat(t *testing.T) {
	src := newFakeSource("a", 2)
	// Same ids in a second chat are different messages.
	for _, m := range newFakeSource("b", 2).chats["b"] {
		src.chats["b"] = append(src.chats["b"], m)
	}
	matches := []*store.Message{src.get("a", "m2"), src.get("b", "m2")}

	got, err := Stitch(context.Background(), src, matches, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("got %d messages, want 4", len(got))
	}
}

func TestStitchZeroWindowReturnsMatches(t *testing.T) {
	src := newFakeSource("c", 5)
	matches := []*store.Message{src.get("c", "m4"), src.get("c", "m2")}

	got, err := Stitch(context.Background(), src, matches, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(messageIDs(got), []string{"m4", "m2"}) {
		t.Errorf("stitched = %v", messageIDs(got))
	}
}

func TestStitchMissingMatchKeepsIt(t *testing.T) {
	src := newFakeSource("c", 3)
	gone := &store.Message{ID: "deleted", ChatJID: "c"}
	matches := []*store.Message{src.get("c", "m3"), gone}

	got, err := Stitch(context.Background(), src, matches, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(messageIDs(got), []string{"m2", "m3", "deleted"}) {
		t.Errorf("stitched = %v", messageIDs(got))
	}
}

func TestStitchPropagatesErrors(t *testing.T) {
	src := newFakeSource("c", 3)
	boom := errors.New("disk on fire")
	src.err = boom

	_, err := Stitch(context.Background(), src, []*store.Message{src.get("c", "m1")}, 1, 1)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
