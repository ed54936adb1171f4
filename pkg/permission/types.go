// Package permission arbitrates every permission request that loaded content
// funnels through the embedding layer: content-level permissions (geolocation,
// notifications, autoplay, WebXR, DRM key access, storage) as well as the
// OS-level permission round-trips those can trigger. Verdicts are delivered
// through the future package so callers never block a thread waiting on a
// prompt.
package permission

// Kind enumerates the content permission kinds the engine can request.
// The set is closed: dispatch over it is an exhaustive switch, and reaching
// the default branch indicates a version skew between the engine bindings
// and this package.
type Kind int

const (
	KindGeolocation Kind = iota
	KindNotification
	KindPersistentStorage
	KindWebXR
	KindAutoplayInaudible
	KindAutoplayAudible
	KindMediaKeySystem
	KindTracking
	KindStorageAccess
)

func (k Kind) String() string {
	switch k {
	case KindGeolocation:
		return "geolocation"
	case KindNotification:
		return "notification"
	case KindPersistentStorage:
		return "persistent_storage"
	case KindWebXR:
		return "webxr"
	case KindAutoplayInaudible:
		return "autoplay_inaudible"
	case KindAutoplayAudible:
		return "autoplay_audible"
	case KindMediaKeySystem:
		return "media_key_system"
	case KindTracking:
		return "tracking"
	case KindStorageAccess:
		return "storage_access"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of a permission decision.
type Verdict int

const (
	VerdictPrompt Verdict = iota
	VerdictAllow
	VerdictDeny
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictDeny:
		return "deny"
	default:
		return "prompt"
	}
}

// ContentRequest describes one permission ask from loaded content. It is
// immutable once constructed; the arbiter only ever produces a verdict for
// it.
type ContentRequest struct {
	URI              string
	ThirdPartyOrigin string
	PrivateBrowsing  bool
	Kind             Kind
	Value            Verdict // value currently in effect for the site
	ContextID        string  // storage partition, empty for the default
}

// Category identifies the kind of a persisted site exception row.
type Category string

const (
	CategoryWebXR    Category = "webxr"
	CategoryTracking Category = "tracking"
	CategoryDRM      Category = "drm"
	CategoryPopup    Category = "popup"
)

// SiteException is a persisted per-site override of default policy.
//
// For the WebXR and Tracking categories the encoding is inverted relative to
// a conventional allow-list: the presence of a row means the site is blocked,
// absence means allowed. See Arbiter.blockedByException.
type SiteException struct {
	URL      string
	Category Category
	Label    string
}

// DRMDecision is the persisted tri-state for protected-media playback.
type DRMDecision int

const (
	DRMUnset DRMDecision = iota
	DRMAllow
	DRMDeny
)

func (d DRMDecision) String() string {
	switch d {
	case DRMAllow:
		return "allow"
	case DRMDeny:
		return "deny"
	default:
		return "unset"
	}
}

// PromptKind selects which human-facing prompt to show.
type PromptKind int

const (
	PromptLocation PromptKind = iota
	PromptNotification
	PromptCamera
	PromptMicrophone
	PromptCameraAndMicrophone
	PromptReadStorage
)

func (p PromptKind) String() string {
	switch p {
	case PromptLocation:
		return "location"
	case PromptNotification:
		return "notification"
	case PromptCamera:
		return "camera"
	case PromptMicrophone:
		return "microphone"
	case PromptCameraAndMicrophone:
		return "camera_and_microphone"
	case PromptReadStorage:
		return "read_storage"
	default:
		return "unknown"
	}
}

// Decision receives the outcome of a prompt or platform round-trip.
// Implementations must tolerate being invoked from any goroutine.
type Decision interface {
	Grant()
	Reject()
}

// DecisionFuncs adapts two funcs into a Decision. Nil funcs are no-ops.
type DecisionFuncs struct {
	OnGrant  func()
	OnReject func()
}

func (d DecisionFuncs) Grant() {
	if d.OnGrant != nil {
		d.OnGrant()
	}
}

func (d DecisionFuncs) Reject() {
	if d.OnReject != nil {
		d.OnReject()
	}
}

// MediaSource describes one capture device offered by the engine for a media
// permission request.
type MediaSource struct {
	ID   string
	Name string
}

// MediaDecision receives the sources chosen for a media permission request,
// or a rejection.
type MediaDecision interface {
	Grant(video, audio *MediaSource)
	Reject()
}
