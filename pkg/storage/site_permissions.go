package storage

import (
	"context"
	"strings"

	"github.com/odvcencio/webgate/pkg/permission"
)

// Site permission rows back the arbiter's exception cache. For the WebXR and
// Tracking categories the presence of a row means the site is blocked; the
// read semantics live in the permission package.

// QueryAll returns every persisted site permission row.
func (s *Store) QueryAll(ctx context.Context) ([]permission.SiteException, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, category, label
		FROM site_permissions
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []permission.SiteException
	for rows.Next() {
		var exc permission.SiteException
		var category string
		if err := rows.Scan(&exc.URL, &category, &exc.Label); err != nil {
			return nil, err
		}
		exc.Category = permission.Category(category)
		out = append(out, exc)
	}
	return out, rows.Err()
}

// QueryByCategory returns the persisted rows for one category.
func (s *Store) QueryByCategory(ctx context.Context, category permission.Category) ([]permission.SiteException, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, category, label
		FROM site_permissions
		WHERE category = ?
		ORDER BY id
	`, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []permission.SiteException
	for rows.Next() {
		var exc permission.SiteException
		var cat string
		if err := rows.Scan(&exc.URL, &cat, &exc.Label); err != nil {
			return nil, err
		}
		exc.Category = permission.Category(cat)
		out = append(out, exc)
	}
	return out, rows.Err()
}

// Insert persists a site permission row. Inserting an existing (url,
// category) pair is a no-op upsert that refreshes the label.
func (s *Store) Insert(ctx context.Context, exc permission.SiteException) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	url := strings.TrimSpace(exc.URL)
	if url == "" {
		return ErrEmptyURL
	}
	err := s.execRetryBusy(ctx, `
		INSERT INTO site_permissions (url, category, label)
		VALUES (?, ?, ?)
		ON CONFLICT(url, category) DO UPDATE SET label = excluded.label
	`, url, string(exc.Category), exc.Label)
	if err != nil {
		return err
	}
	s.notify(newEvent(EventSitePermissionAdded, url, exc))
	s.notifySitePermissionChange(ctx)
	return nil
}

// Delete removes the row matching the exception's (url, category) pair.
func (s *Store) Delete(ctx context.Context, exc permission.SiteException) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	err := s.execRetryBusy(ctx, `
		DELETE FROM site_permissions WHERE url = ? AND category = ?
	`, strings.TrimSpace(exc.URL), string(exc.Category))
	if err != nil {
		return err
	}
	s.notify(newEvent(EventSitePermissionRemoved, exc.URL, exc))
	s.notifySitePermissionChange(ctx)
	return nil
}

// Subscribe registers fn to receive the full current record set after every
// site permission change. The returned func cancels the subscription.
func (s *Store) Subscribe(fn func([]permission.SiteException)) func() {
	s.subsMu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]func([]permission.SiteException))
	}
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// notifySitePermissionChange delivers the full record set to subscribers
// without blocking the writer. The re-query runs on its own context: the
// writer's may already be done by the time the snapshot is taken.
func (s *Store) notifySitePermissionChange(context.Context) {
	s.subsMu.Lock()
	subs := make([]func([]permission.SiteException), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	if len(subs) == 0 {
		return
	}

	go func() {
		records, err := s.QueryAll(context.Background())
		if err != nil {
			return
		}
		for _, fn := range subs {
			fn(records)
		}
	}()
}
