package roster

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"

	"github.com/matheus3301/wppmcp/internal/jid"
	"github.com/matheus3301/wppmcp/internal/metrics"
	"github.com/matheus3301/wppmcp/internal/store"
)

// Roster reads the contact list whatsmeow keeps in whatsapp.db. It never
// writes; the session owns that file.
type Roster struct {
	db *sql.DB
}

// Contact is one entry of the address book as synced from the phone.
type Contact struct {
	JID          string
	PhoneNumber  string
	FirstName    string
	FullName     string
	PushName     string
	BusinessName string
}

// Open opens whatsapp.db read-only.
func Open(path string) (*Roster, error) {
	db, err := sql.Open(store.DriverName, "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping roster: %w", err)
	}
	return &Roster{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Roster) Close() error {
	return r.db.Close()
}

// A contact can be stored once per paired account, so rows are folded by
// their_jid.
const contactSelect = `
SELECT their_jid,
       COALESCE(MAX(first_name), ''), COALESCE(MAX(full_name), ''),
       COALESCE(MAX(push_name), ''), COALESCE(MAX(business_name), '')
FROM whatsmeow_contacts`

const contactGroup = " GROUP BY their_jid"

const contactOrder = ` ORDER BY COALESCE(NULLIF(MAX(full_name), ''), NULLIF(MAX(push_name), ''),
	NULLIF(MAX(first_name), ''), their_jid) COLLATE NOCASE, their_jid`

func (r *Roster) query(ctx context.Context, q string, args ...any) ([]*Contact, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.JID, &c.FirstName, &c.FullName, &c.PushName, &c.BusinessName); err != nil {
			return nil, err
		}
		c.PhoneNumber = jid.Phone(c.JID)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Get returns the contact with the given JID. Returns nil, nil when the
// roster has no entry for it.
func (r *Roster) Get(ctx context.Context, contactJID string) (*Contact, error) {
	defer metrics.ObserveQuery("roster_get")()

	list, err := r.query(ctx, contactSelect+" WHERE their_jid = ?"+contactGroup, contactJID)
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ByPhone returns the contact registered under a phone number, with or
// without a leading '+'. Returns nil, nil when not found.
func (r *Roster) ByPhone(ctx context.Context, phone string) (*Contact, error) {
	p := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if p == "" {
		return nil, nil
	}
	return r.Get(ctx, types.NewJID(p, types.DefaultUserServer).String())
}

// Search matches query as a case-insensitive substring of any name field or
// the JID.
func (r *Roster) Search(ctx context.Context, query string, limit int) ([]*Contact, error) {
	defer metrics.ObserveQuery("roster_search")()

	p := "%" + likeEscaper.Replace(query) + "%"
	q := contactSelect + ` WHERE fold(first_name) LIKE fold(?) ESCAPE '\'
		OR fold(full_name) LIKE fold(?) ESCAPE '\'
		OR fold(push_name) LIKE fold(?) ESCAPE '\'
		OR fold(business_name) LIKE fold(?) ESCAPE '\'
		OR their_jid LIKE ? ESCAPE '\'` + contactGroup + contactOrder + " LIMIT ?"

	list, err := r.query(ctx, q, p, p, p, p, p, limit)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return list, nil
}

// List returns up to limit contacts ordered by display name.
func (r *Roster) List(ctx context.Context, limit int) ([]*Contact, error) {
	defer metrics.ObserveQuery("roster_list")()

	list, err := r.query(ctx, contactSelect+contactGroup+contactOrder+" LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return list, nil
}

// Lookup resolves many JIDs at once, keyed by JID. Unknown JIDs are absent
// from the map.
func (r *Roster) Lookup(ctx context.Context, jids []string) (map[string]*Contact, error) {
	out := make(map[string]*Contact, len(jids))
	if len(jids) == 0 {
		return out, nil
	}
	defer metrics.ObserveQuery("roster_lookup")()

	args := make([]any, len(jids))
	for i, j := range jids {
		args[i] = j
	}
	in := strings.TrimSuffix(strings.Repeat("?, ", len(jids)), ", ")
	list, err := r.query(ctx, contactSelect+" WHERE their_jid IN ("+in+")"+contactGroup, args...)
	if err != nil {
		return nil, fmt.Errorf("lookup contacts: %w", err)
	}
	for _, c := range list {
		out[c.JID] = c
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Resolve looks an identifier up first as a JID, then as a phone number.
// Returns nil, nil when neither matches.
func (r *Roster) Resolve(ctx context.Context, identifier string) (*Contact, error) {
	if j, err := jid.Parse(identifier); err == nil {
		c, err := r.Get(ctx, j.String())
		if err != nil || c != nil {
			return c, err
		}
	}
	return r.ByPhone(ctx, jid.Phone(identifier))
}
