package permission

import (
	"github.com/odvcencio/webgate/pkg/logging"
)

// RequestMedia resolves a camera/microphone capture request. The prompt kind
// follows which device classes the content asked for; a request offering no
// sources at all is rejected without a prompt. On grant the first source of
// each requested class is selected.
func (a *Arbiter) RequestMedia(sessionID, uri string, video, audio []MediaSource, decision MediaDecision) {
	var videoSrc, audioSrc *MediaSource
	if len(video) > 0 {
		videoSrc = &video[0]
	}
	if len(audio) > 0 {
		audioSrc = &audio[0]
	}

	var kind PromptKind
	switch {
	case videoSrc != nil && audioSrc != nil:
		kind = PromptCameraAndMicrophone
	case videoSrc != nil:
		kind = PromptCamera
	case audioSrc != nil:
		kind = PromptMicrophone
	default:
		_ = a.logger.Warn(logging.CategoryPermission, "media_no_sources", "",
			map[string]any{"uri": uri, "session": sessionID})
		decision.Reject()
		return
	}

	a.prompter.ShowPrompt(uri, kind, DecisionFuncs{
		OnGrant: func() {
			_ = a.logger.Info(logging.CategoryDecision, "media_granted", "",
				map[string]any{"uri": uri, "prompt": kind.String()})
			decision.Grant(videoSrc, audioSrc)
		},
		OnReject: func() {
			_ = a.logger.Info(logging.CategoryDecision, "media_rejected", "",
				map[string]any{"uri": uri, "prompt": kind.String()})
			decision.Reject()
		},
	})
}
