package permission

import (
	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/webgate/pkg/logging"
)

type pendingPlatform struct {
	decision Decision
	ids      []string
}

// RequestPlatform resolves a set of OS-level permission ids. Permissions the
// platform build cannot honor are filtered out, already-granted ones need no
// round-trip, and the remainder are requested from the bridge under a fresh
// tag. The decision fires once: immediately when nothing is missing, or from
// HandlePlatformReply when the reply arrives.
func (a *Arbiter) RequestPlatform(ids []string, decision Decision) {
	var filtered int
	var missing []string
	for _, id := range ids {
		if a.bridge.Unsupported(id) {
			filtered++
			_ = a.logger.Debug(logging.CategoryPlatform, "permission_filtered", "",
				map[string]any{"id": id})
			continue
		}
		if !a.bridge.Granted(id) {
			missing = append(missing, id)
		}
	}

	if len(missing) == 0 {
		if filtered == 0 {
			decision.Grant()
		} else {
			// The host cannot honor part of the request; the caller must
			// not proceed as if it held every permission it asked for.
			decision.Reject()
		}
		return
	}

	tag := ulid.Make().String()
	a.pendingMu.Lock()
	a.pending[tag] = pendingPlatform{decision: decision, ids: missing}
	n := len(a.pending)
	a.pendingMu.Unlock()
	metricPlatformPending.Set(float64(n))

	_ = a.logger.Info(logging.CategoryPlatform, "platform_request", "",
		map[string]any{"tag": tag, "ids": missing})
	a.bridge.Request(tag, missing)
}

// HandlePlatformReply delivers the OS's answer for a tag issued by
// RequestPlatform. The aggregate verdict is all-or-nothing: every requested
// id must be granted. Replies for unknown tags are ignored; the original
// request may have been resolved or the tag may belong to another consumer.
func (a *Arbiter) HandlePlatformReply(tag string, granted map[string]bool) {
	a.pendingMu.Lock()
	p, ok := a.pending[tag]
	if ok {
		delete(a.pending, tag)
	}
	n := len(a.pending)
	a.pendingMu.Unlock()

	if !ok {
		_ = a.logger.Debug(logging.CategoryPlatform, "stale_reply", "",
			map[string]any{"tag": tag})
		return
	}
	metricPlatformPending.Set(float64(n))

	for _, id := range p.ids {
		if !granted[id] {
			_ = a.logger.Info(logging.CategoryPlatform, "platform_denied", "",
				map[string]any{"tag": tag, "id": id})
			p.decision.Reject()
			return
		}
	}
	p.decision.Grant()
}

// RequestApp resolves a single OS-level permission on behalf of the
// application itself, showing a rationale prompt first for ids that have
// one. A rejected rationale never reaches the OS.
func (a *Arbiter) RequestApp(uri string, id string, decision Decision) {
	if a.bridge.Granted(id) {
		decision.Grant()
		return
	}
	kind, ok := a.rationales[id]
	if !ok {
		a.RequestPlatform([]string{id}, decision)
		return
	}
	a.prompter.ShowPrompt(uri, kind, DecisionFuncs{
		OnGrant: func() {
			a.RequestPlatform([]string{id}, decision)
		},
		OnReject: decision.Reject,
	})
}
