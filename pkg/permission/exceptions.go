package permission

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/webgate/pkg/errors"
	"github.com/odvcencio/webgate/pkg/logging"
)

// AddException persists a site exception for (uri, category) and reloads
// every open session currently on that host, bypassing caches so the new
// policy takes effect immediately. Inserting a record that already exists is
// a no-op; the reloads still run.
func (a *Arbiter) AddException(ctx context.Context, uri string, category Category) error {
	exc := SiteException{URL: uri, Category: category}
	if !a.hasException(uri, category) {
		if err := a.store.Insert(ctx, exc); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorageWrite, "persist site exception").
				WithContext("uri", uri).
				WithContext("category", string(category))
		}
		// Optimistic update; the store's change stream will resync the
		// full set shortly after.
		a.cacheMu.Lock()
		a.exceptions = append(a.exceptions, exc)
		a.cacheMu.Unlock()
	}
	metricExceptionChanges.WithLabelValues("add", string(category)).Inc()
	_ = a.logger.Info(logging.CategoryException, "exception_added", "",
		map[string]any{"uri": uri, "category": string(category)})
	a.reloadMatchingSessions(ctx, uri)
	return nil
}

// RemoveException deletes the site exception for (uri, category) and reloads
// every open session currently on that host with caches bypassed.
func (a *Arbiter) RemoveException(ctx context.Context, uri string, category Category) error {
	if a.hasException(uri, category) {
		if err := a.store.Delete(ctx, SiteException{URL: uri, Category: category}); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorageWrite, "delete site exception").
				WithContext("uri", uri).
				WithContext("category", string(category))
		}
		a.cacheMu.Lock()
		kept := a.exceptions[:0]
		for _, exc := range a.exceptions {
			if exc.URL == uri && exc.Category == category {
				continue
			}
			kept = append(kept, exc)
		}
		a.exceptions = kept
		a.cacheMu.Unlock()
	}
	metricExceptionChanges.WithLabelValues("remove", string(category)).Inc()
	_ = a.logger.Info(logging.CategoryException, "exception_removed", "",
		map[string]any{"uri": uri, "category": string(category)})
	a.reloadMatchingSessions(ctx, uri)
	return nil
}

// Exceptions returns a snapshot of the cached exception set.
func (a *Arbiter) Exceptions() []SiteException {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()
	out := make([]SiteException, len(a.exceptions))
	copy(out, a.exceptions)
	return out
}

func (a *Arbiter) hasException(uri string, category Category) bool {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()
	for _, exc := range a.exceptions {
		if exc.Category == category && exc.URL == uri {
			return true
		}
	}
	return false
}

// blockedByException reports whether an exception row exists for the domain
// in the given category. For WebXR and Tracking the row encoding is inverted
// relative to a conventional allow-list: presence means blocked.
func (a *Arbiter) blockedByException(domain string, category Category) bool {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()
	for _, exc := range a.exceptions {
		if exc.Category == category && strings.EqualFold(exc.URL, domain) {
			return true
		}
	}
	return false
}

// reloadMatchingSessions reloads, caches bypassed, every open session whose
// current host matches the exception uri. Reloads are best effort; failures
// are logged and do not surface to the caller.
func (a *Arbiter) reloadMatchingSessions(ctx context.Context, uri string) {
	target := hostOf(uri)
	g, ctx := errgroup.WithContext(ctx)
	for _, sess := range a.sessions.CurrentSessions() {
		sess := sess
		if !strings.EqualFold(target, hostOf(sess.CurrentURI())) {
			continue
		}
		g.Go(func() error {
			if err := sess.Reload(ctx, true); err != nil {
				_ = a.logger.Warn(logging.CategorySession, "reload_failed", err.Error(),
					map[string]any{"session": sess.ID(), "uri": sess.CurrentURI()})
				return nil
			}
			metricExceptionReloads.Inc()
			return nil
		})
	}
	_ = g.Wait()
}

// hostOf extracts the lowercased hostname from a URI. Bare hosts such as
// "example.com" pass through unchanged.
func hostOf(uri string) string {
	if u, err := url.Parse(uri); err == nil && u.Host != "" {
		return strings.ToLower(u.Hostname())
	}
	trimmed := strings.TrimSpace(uri)
	if i := strings.IndexAny(trimmed, "/:"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.ToLower(trimmed)
}
