package permission

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMediaDecision struct {
	mu      sync.Mutex
	video   *MediaSource
	audio   *MediaSource
	grants  int
	rejects int
}

func (d *recordedMediaDecision) Grant(video, audio *MediaSource) {
	d.mu.Lock()
	d.video, d.audio = video, audio
	d.grants++
	d.mu.Unlock()
}

func (d *recordedMediaDecision) Reject() {
	d.mu.Lock()
	d.rejects++
	d.mu.Unlock()
}

func TestRequestMediaPromptKindSelection(t *testing.T) {
	video := []MediaSource{{ID: "cam0", Name: "Front"}}
	audio := []MediaSource{{ID: "mic0", Name: "Built-in"}}

	tests := []struct {
		name  string
		video []MediaSource
		audio []MediaSource
		want  PromptKind
	}{
		{"both", video, audio, PromptCameraAndMicrophone},
		{"video only", video, nil, PromptCamera},
		{"audio only", nil, audio, PromptMicrophone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			dec := &recordedMediaDecision{}
			f.arb.RequestMedia("sess-1", "https://example.com", tt.video, tt.audio, dec)
			assert.Equal(t, tt.want, f.prompter.lastCall(t).kind)
		})
	}
}

func TestRequestMediaNoSourcesRejected(t *testing.T) {
	f := newFixture(t)
	dec := &recordedMediaDecision{}

	f.arb.RequestMedia("sess-1", "https://example.com", nil, nil, dec)

	assert.Equal(t, 1, dec.rejects)
	assert.Empty(t, f.prompter.calls)
}

func TestRequestMediaGrantSelectsFirstSources(t *testing.T) {
	f := newFixture(t)
	f.prompter.auto = func(kind PromptKind, d Decision) { d.Grant() }
	dec := &recordedMediaDecision{}

	f.arb.RequestMedia("sess-1", "https://example.com",
		[]MediaSource{{ID: "cam0"}, {ID: "cam1"}},
		[]MediaSource{{ID: "mic0"}, {ID: "mic1"}},
		dec)

	require.Equal(t, 1, dec.grants)
	assert.Equal(t, "cam0", dec.video.ID)
	assert.Equal(t, "mic0", dec.audio.ID)
}

func TestRequestMediaReject(t *testing.T) {
	f := newFixture(t)
	f.prompter.auto = func(kind PromptKind, d Decision) { d.Reject() }
	dec := &recordedMediaDecision{}

	f.arb.RequestMedia("sess-1", "https://example.com",
		[]MediaSource{{ID: "cam0"}}, nil, dec)

	assert.Equal(t, 1, dec.rejects)
	assert.Nil(t, dec.video)
}
