package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/odvcencio/webgate/pkg/errors"
	"github.com/odvcencio/webgate/pkg/future"
	"github.com/odvcencio/webgate/pkg/logging"
	"github.com/odvcencio/webgate/pkg/session"
)

// ExceptionStore is the persistence surface for site permission exceptions.
// Subscribe delivers the full current record set after every change; the
// returned func cancels the subscription.
type ExceptionStore interface {
	QueryAll(ctx context.Context) ([]SiteException, error)
	Insert(ctx context.Context, exc SiteException) error
	Delete(ctx context.Context, exc SiteException) error
	Subscribe(fn func([]SiteException)) func()
}

// Settings exposes the global policy switches the arbiter consults.
type Settings interface {
	AutoplayEnabled() bool
	WebXREnabled() bool
	DRMDecision() DRMDecision
}

// Prompter shows human-facing permission prompts. The first-time DRM dialog
// is expected to persist the user's choice into Settings before calling done.
type Prompter interface {
	ShowPrompt(uri string, kind PromptKind, decision Decision)
	ShowFirstTimeDRM(done func())
}

// PlatformBridge requests OS-level permissions. Replies are delivered back
// through Arbiter.HandlePlatformReply with the tag passed to Request.
type PlatformBridge interface {
	// Granted reports whether the OS has already granted the permission.
	Granted(id string) bool
	// Unsupported reports whether the current platform build cannot honor
	// the permission at all.
	Unsupported(id string) bool
	Request(tag string, ids []string)
}

// SessionDirectory enumerates the open sessions the arbiter can mark and
// reload.
type SessionDirectory interface {
	Get(id string) (session.Session, bool)
	CurrentSessions() []session.Session
}

// AuditLog records decided verdicts. Optional.
type AuditLog interface {
	RecordVerdict(sessionID string, req ContentRequest, verdict Verdict) error
}

// Options configures an Arbiter. Store, Settings, Prompter, Bridge, and
// Sessions are required; the rest are optional.
type Options struct {
	Store    ExceptionStore
	Settings Settings
	Prompter Prompter
	Bridge   PlatformBridge
	Sessions SessionDirectory

	Audit  AuditLog
	Logger *logging.Logger

	// LocationGranted runs after a geolocation prompt is accepted, for
	// hosts that wire engine location into a platform positioning service.
	LocationGranted func(session.Session)

	// Rationales maps platform permission ids to the rationale prompt shown
	// before escalating to the OS. Defaults to DefaultRationales().
	Rationales map[string]PromptKind
}

// DefaultRationales returns the rationale prompts shown before OS-level
// requests for permissions that benefit from an explanation.
func DefaultRationales() map[string]PromptKind {
	return map[string]PromptKind{
		"READ_EXTERNAL_STORAGE": PromptReadStorage,
	}
}

// Arbiter resolves every permission request funneled through the embedding
// layer: from the in-memory exception cache, from global settings, or by
// escalating to a prompt or the platform's own permission system.
type Arbiter struct {
	store    ExceptionStore
	settings Settings
	prompter Prompter
	bridge   PlatformBridge
	sessions SessionDirectory
	audit    AuditLog
	logger   *logging.Logger

	locationGranted func(session.Session)
	rationales      map[string]PromptKind

	// exception cache, written only by the store subscription and the
	// optimistic updates in exceptions.go
	cacheMu    sync.RWMutex
	exceptions []SiteException

	unsubscribe func()

	// outstanding platform round-trips keyed by request tag
	pendingMu sync.Mutex
	pending   map[string]pendingPlatform
}

// New creates an Arbiter, seeds the exception cache, and subscribes to the
// store's change stream.
func New(ctx context.Context, opts Options) (*Arbiter, error) {
	if opts.Store == nil || opts.Settings == nil || opts.Prompter == nil ||
		opts.Bridge == nil || opts.Sessions == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"store, settings, prompter, bridge, and sessions are required")
	}
	rationales := opts.Rationales
	if rationales == nil {
		rationales = DefaultRationales()
	}

	a := &Arbiter{
		store:           opts.Store,
		settings:        opts.Settings,
		prompter:        opts.Prompter,
		bridge:          opts.Bridge,
		sessions:        opts.Sessions,
		audit:           opts.Audit,
		logger:          opts.Logger,
		locationGranted: opts.LocationGranted,
		rationales:      rationales,
		pending:         make(map[string]pendingPlatform),
	}

	records, err := a.store.QueryAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageRead, "seed exception cache")
	}
	a.exceptions = records

	a.unsubscribe = a.store.Subscribe(func(records []SiteException) {
		a.cacheMu.Lock()
		a.exceptions = records
		a.cacheMu.Unlock()
	})

	return a, nil
}

// Close cancels the store subscription.
func (a *Arbiter) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// RequestContent produces exactly one verdict for a content permission
// request. Dispatch is an exhaustive switch over the closed Kind set.
func (a *Arbiter) RequestContent(sessionID string, req ContentRequest) *future.Result[Verdict] {
	metricContentRequests.WithLabelValues(req.Kind.String()).Inc()
	_ = a.logger.Debug(logging.CategoryPermission, "content_request", "",
		map[string]any{"uri": req.URI, "kind": req.Kind.String(), "session": sessionID})

	switch req.Kind {
	case KindAutoplayInaudible:
		// Silent media autoplay is never gated.
		return a.resolved(sessionID, req, VerdictAllow)

	case KindAutoplayAudible:
		if a.settings.AutoplayEnabled() {
			return a.resolved(sessionID, req, VerdictAllow)
		}
		return a.resolved(sessionID, req, VerdictDeny)

	case KindWebXR:
		return a.resolveWebXR(sessionID, req)

	case KindMediaKeySystem:
		return a.resolveDRM(sessionID, req)

	case KindGeolocation:
		return a.resolvePrompt(sessionID, req, PromptLocation)

	case KindNotification:
		return a.resolvePrompt(sessionID, req, PromptNotification)

	case KindPersistentStorage, KindTracking, KindStorageAccess:
		// The engine resolves these through its own storage machinery;
		// there is no prompt surface for them here.
		return a.resolved(sessionID, req, VerdictDeny)

	default:
		// The Kind set is closed; a value outside it means the engine
		// bindings and this package disagree about the enumeration.
		err := errors.New(errors.ErrCodePermissionKindUnknown,
			fmt.Sprintf("unhandled permission kind %d", int(req.Kind))).
			WithContext("uri", req.URI)
		_ = a.logger.Error(logging.CategoryPermission, "unknown_kind", err.Error(),
			map[string]any{"kind": int(req.Kind)})
		metricUnknownKinds.Inc()
		return a.resolved(sessionID, req, VerdictDeny)
	}
}

// resolveWebXR applies the presence-means-block exception encoding: a site
// with no WebXR exception row is allowed, a site with one is blocked. The
// global WebXR switch overrides both.
func (a *Arbiter) resolveWebXR(sessionID string, req ContentRequest) *future.Result[Verdict] {
	sess, ok := a.sessions.Get(sessionID)
	if !ok || !a.settings.WebXREnabled() {
		return a.resolved(sessionID, req, VerdictDeny)
	}

	domain := hostOf(req.URI)
	if a.blockedByException(domain, CategoryWebXR) {
		sess.SetWebXRState(session.StateBlocked)
		return a.resolved(sessionID, req, VerdictDeny)
	}

	sess.SetWebXRState(session.StateAllowed)
	return a.resolved(sessionID, req, VerdictAllow)
}

// resolveDRM applies the persisted tri-state choice, or shows the one-time
// first-run dialog when it is unset. The dialog persists the user's answer
// into Settings before invoking done, so both branches read the same state.
func (a *Arbiter) resolveDRM(sessionID string, req ContentRequest) *future.Result[Verdict] {
	result := future.New[Verdict]()

	apply := func() {
		sess, ok := a.sessions.Get(sessionID)
		if a.settings.DRMDecision() == DRMAllow {
			if ok {
				sess.SetDRMState(session.StateAllowed)
			}
			a.completeVerdict(result, sessionID, req, VerdictAllow)
			return
		}
		if ok {
			sess.SetDRMState(session.StateBlocked)
		}
		a.completeVerdict(result, sessionID, req, VerdictDeny)
	}

	if a.settings.DRMDecision() != DRMUnset {
		apply()
	} else {
		a.prompter.ShowFirstTimeDRM(apply)
	}
	return result
}

// resolvePrompt escalates to the human-facing prompt and resolves from its
// grant/reject callback.
func (a *Arbiter) resolvePrompt(sessionID string, req ContentRequest, kind PromptKind) *future.Result[Verdict] {
	result := future.New[Verdict]()

	a.prompter.ShowPrompt(req.URI, kind, DecisionFuncs{
		OnGrant: func() {
			a.completeVerdict(result, sessionID, req, VerdictAllow)
			if kind == PromptLocation && a.locationGranted != nil {
				sess, _ := a.sessions.Get(sessionID)
				a.locationGranted(sess)
			}
		},
		OnReject: func() {
			a.completeVerdict(result, sessionID, req, VerdictDeny)
		},
	})
	return result
}

// resolved returns an already-decided verdict.
func (a *Arbiter) resolved(sessionID string, req ContentRequest, v Verdict) *future.Result[Verdict] {
	result := future.New[Verdict]()
	a.completeVerdict(result, sessionID, req, v)
	return result
}

// completeVerdict completes the result and records the decision. A second
// completion is a double-resolution bug in a prompt or bridge and is logged
// at error severity rather than swallowed.
func (a *Arbiter) completeVerdict(result *future.Result[Verdict], sessionID string, req ContentRequest, v Verdict) {
	if err := result.Complete(v); err != nil {
		_ = a.logger.Error(logging.CategoryPermission, "double_resolution", err.Error(),
			map[string]any{"uri": req.URI, "kind": req.Kind.String()})
		return
	}
	metricVerdicts.WithLabelValues(v.String()).Inc()
	_ = a.logger.Info(logging.CategoryDecision, "verdict", "",
		map[string]any{"uri": req.URI, "kind": req.Kind.String(), "verdict": v.String()})
	if a.audit != nil {
		if err := a.audit.RecordVerdict(sessionID, req, v); err != nil {
			_ = a.logger.Warn(logging.CategoryStorage, "audit_failed", err.Error(), nil)
		}
	}
}
