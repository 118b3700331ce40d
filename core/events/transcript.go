package events

import "github.com/courtneylabs/widget-core/core/transcript"

const (
	// KindTranscriptFinal identifies a settled transcript fragment.
	KindTranscriptFinal Kind = "transcript.final"
)

// TranscriptFinal carries a settled transcript fragment with its normalized
// author role. Only user and assistant roles occur here; system fragments
// and interim output are filtered out before events are constructed.
type TranscriptFinal struct {
	Base
	Role       transcript.Role
	Transcript string
}

func (t TranscriptFinal) String() string { return t.Transcript }

// NewTranscriptFinal creates a final transcript event.
func NewTranscriptFinal(role transcript.Role, text string) TranscriptFinal {
	return TranscriptFinal{Base: NewBase(KindTranscriptFinal), Role: role, Transcript: text}
}
