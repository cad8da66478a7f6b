package roster

import (
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func testRoster(t *testing.T) *Roster {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whatsapp.db")

	// whatsmeow owns this schema; recreate the columns we read.
	w, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.Exec(`CREATE TABLE whatsmeow_contacts (
		our_jid TEXT, their_jid TEXT, first_name TEXT, full_name TEXT,
		push_name TEXT, business_name TEXT, PRIMARY KEY (our_jid, their_jid))`)
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]any{
		{"me@s.whatsapp.net", "111@s.whatsapp.net", "Ana", "Ana Souza", "ana!", nil},
		{"me@s.whatsapp.net", "222@s.whatsapp.net", nil, nil, "bruno_p", nil},
		{"me@s.whatsapp.net", "333@s.whatsapp.net", "Carla", nil, nil, "Carla's Bakery"},
		{"me@s.whatsapp.net", "444@s.whatsapp.net", nil, nil, nil, nil},
		// The same contact seen from a second paired account.
		{"me2@s.whatsapp.net", "111@s.whatsapp.net", "Ana", "Ana Souza", "ana!", nil},
	}
	for _, r := range rows {
		if _, err := w.Exec("INSERT INTO whatsmeow_contacts VALUES (?, ?, ?, ?, ?, ?)", r...); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func jids(list []*Contact) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.JID
	}
	return out
}

func TestGetAndByPhone(t *testing.T) {
	r := testRoster(t)
	ctx := context.Background()

	c, err := r.Get(ctx, "111@s.whatsapp.net")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.FullName != "Ana Souza" || c.PhoneNumber != "111" {
		t.Fatalf("Get = %+v", c)
	}

	c, err = r.ByPhone(ctx, "+333")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.BusinessName != "Carla's Bakery" {
		t.Errorf("ByPhone = %+v", c)
	}

	c, err = r.Get(ctx, "999@s.whatsapp.net")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
}

func TestResolve(t *testing.T) {
	r := testRoster(t)
	ctx := context.Background()

	for _, id := range []string{"222@s.whatsapp.net", "222", "+222"} {
		c, err := r.Resolve(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if c == nil || c.JID != "222@s.whatsapp.net" {
			t.Errorf("Resolve(%q) = %+v", id, c)
		}
	}

	c, err := r.Resolve(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("Resolve(nobody) = %+v, want nil", c)
	}
}

func TestSearch(t *testing.T) {
	r := testRoster(t)
	ctx := context.Background()

	tests := []struct {
		query string
		want  []string
	}{
		{"ana", []string{"111@s.whatsapp.net"}},
		{"SOUZA", []string{"111@s.whatsapp.net"}},
		{"bakery", []string{"333@s.whatsapp.net"}},
		{"_", []string{"222@s.whatsapp.net"}},
		{"444", []string{"444@s.whatsapp.net"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := r.Search(ctx, tt.query, 50)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(jids(got), tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, jids(got), tt.want)
			}
		})
	}
}

func TestListFoldsDuplicatesAndOrdersByName(t *testing.T) {
	r := testRoster(t)

	got, err := r.List(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	// Sort keys: "444@s..." (no names), "Ana Souza", "bruno_p", "Carla".
	want := []string{"444@s.whatsapp.net", "111@s.whatsapp.net", "222@s.whatsapp.net", "333@s.whatsapp.net"}
	if !slices.Equal(jids(got), want) {
		t.Errorf("List = %v, want %v", jids(got), want)
	}

	got, err = r.List(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("limit ignored: got %d", len(got))
	}
}

func TestLookup(t *testing.T) {
	r := testRoster(t)

	m, err := r.Lookup(context.Background(), []string{"111@s.whatsapp.net", "999@s.whatsapp.net", "333@s.whatsapp.net"})
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m["111@s.whatsapp.net"] == nil || m["333@s.whatsapp.net"] == nil {
		t.Errorf("Lookup = %v", m)
	}

	m, err = r.Lookup(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 0 {
		t.Errorf("empty lookup = %v", m)
	}
}

func TestOpenIsReadOnly(t *testing.T) {
	r := testRoster(t)
	if _, err := r.db.Exec("DELETE FROM whatsmeow_contacts"); err == nil {
		t.Error("write through read-only roster succeeded")
	}
}

func TestDisplayNamePrecedence(t *testing.T) {
	want := []NameSource{
		SourceNickname, SourceFullName, SourcePushName,
		SourceFirstName, SourceBusinessName, SourcePhoneNumber,
	}
	if !slices.Equal(DisplayNamePrecedence, want) {
		t.Fatalf("precedence = %v, want %v", DisplayNamePrecedence, want)
	}

	full := &Contact{
		JID: "1@s.whatsapp.net", PhoneNumber: "1",
		FullName: "Full", PushName: "Push", FirstName: "First", BusinessName: "Biz",
	}
	tests := []struct {
		name     string
		contact  *Contact
		nickname string
		want     string
		source   NameSource
	}{
		{"nickname wins", full, "Nick", "Nick", SourceNickname},
		{"full name", full, "", "Full", SourceFullName},
		{"push name", &Contact{PushName: "Push", FirstName: "First", PhoneNumber: "1"}, "", "Push", SourcePushName},
		{"first name", &Contact{FirstName: "First", BusinessName: "Biz", PhoneNumber: "1"}, "", "First", SourceFirstName},
		{"business name", &Contact{BusinessName: "Biz", PhoneNumber: "1"}, "", "Biz", SourceBusinessName},
		{"phone", &Contact{PhoneNumber: "1"}, "", "1", SourcePhoneNumber},
		{"no contact", nil, "", "5", SourcePhoneNumber},
		{"no contact with nickname", nil, "Nick", "Nick", SourceNickname},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src := DisplayName(tt.contact, tt.nickname, "")
			if tt.contact == nil {
				got, src = DisplayName(nil, tt.nickname, "5")
			}
			if got != tt.want || src != tt.source {
				t.Errorf("DisplayName = %q (%s), want %q (%s)", got, src, tt.want, tt.source)
			}
		})
	}
}

func TestSearchFoldsUnicode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whatsapp.db")
	w, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.Exec(`CREATE TABLE whatsmeow_contacts (our_jid TEXT, their_jid TEXT,
		first_name TEXT, full_name TEXT, push_name TEXT, business_name TEXT);
		INSERT INTO whatsmeow_contacts VALUES
			('me@s.whatsapp.net', '555@s.whatsapp.net', 'JOÃO', 'JOÃO ÁVILA', NULL, NULL),
			('me@s.whatsapp.net', '666@s.whatsapp.net', NULL, NULL, 'ДМИТРИЙ', NULL);`)
	if err != nil {
		t.Fatal(err)
	}
	_ = w.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Close() })

	tests := []struct {
		query string
		want  []string
	}{
		{"joão", []string{"555@s.whatsapp.net"}},
		{"ávila", []string{"555@s.whatsapp.net"}},
		{"дмитрий", []string{"666@s.whatsapp.net"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := r.Search(context.Background(), tt.query, 50)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(jids(got), tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, jids(got), tt.want)
			}
		})
	}
}
