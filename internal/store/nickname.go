package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matheus3301/wppmcp/internal/metrics"
)

// SetNickname inserts or updates the nickname for jid. created_at is kept on
// update; updated_at always moves to the current time.
func (db *DB) SetNickname(ctx context.Context, jid, nickname string) (*Nickname, error) {
	defer metrics.ObserveQuery("set_nickname")()

	now := db.now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO contact_nicknames (jid, nickname, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(jid) DO UPDATE SET
			nickname = excluded.nickname,
			updated_at = excluded.updated_at`,
		jid, nickname, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("set nickname: %w", err)
	}
	return db.GetNickname(ctx, jid)
}

// GetNickname returns the nickname for jid. Returns nil, nil when none is set.
func (db *DB) GetNickname(ctx context.Context, jid string) (*Nickname, error) {
	n, err := scanNickname(db.QueryRowContext(ctx,
		"SELECT jid, nickname, created_at, updated_at FROM contact_nicknames WHERE jid = ?", jid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get nickname: %w", err)
	}
	return n, nil
}

// RemoveNickname deletes the nickname for jid and reports whether one existed.
func (db *DB) RemoveNickname(ctx context.Context, jid string) (bool, error) {
	defer metrics.ObserveQuery("remove_nickname")()

	res, err := db.ExecContext(ctx, "DELETE FROM contact_nicknames WHERE jid = ?", jid)
	if err != nil {
		return false, fmt.Errorf("remove nickname: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove nickname: %w", err)
	}
	return n > 0, nil
}

// ListNicknames returns all nicknames ordered by jid.
func (db *DB) ListNicknames(ctx context.Context) ([]*Nickname, error) {
	defer metrics.ObserveQuery("list_nicknames")()

	rows, err := db.QueryContext(ctx,
		"SELECT jid, nickname, created_at, updated_at FROM contact_nicknames ORDER BY jid")
	if err != nil {
		return nil, fmt.Errorf("list nicknames: %w", err)
	}
	defer rows.Close()

	var out []*Nickname
	for rows.Next() {
		n, err := scanNickname(rows)
		if err != nil {
			return nil, fmt.Errorf("scan nickname: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// NicknameMap returns every nickname keyed by jid, for bulk name resolution.
func (db *DB) NicknameMap(ctx context.Context) (map[string]string, error) {
	list, err := db.ListNicknames(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(list))
	for _, n := range list {
		m[n.JID] = n.Nickname
	}
	return m, nil
}

func scanNickname(s scanner) (*Nickname, error) {
	var (
		n                Nickname
		created, updated sqlTime
	)
	if err := s.Scan(&n.JID, &n.Nickname, &created, &updated); err != nil {
		return nil, err
	}
	n.CreatedAt = created.Time
	n.UpdatedAt = updated.Time
	return &n, nil
}
