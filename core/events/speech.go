package events

const (
	// KindSpeechStarted identifies start of speech activity.
	KindSpeechStarted Kind = "speech.started"
	// KindSpeechEnded identifies end of speech activity.
	KindSpeechEnded Kind = "speech.ended"
	// KindVolumeLevel identifies an input volume sample.
	KindVolumeLevel Kind = "speech.volume_level"
)

// SpeechStarted marks when speech activity begins.
type SpeechStarted struct{ Base }

// NewSpeechStarted creates a speech started event.
func NewSpeechStarted() SpeechStarted {
	return SpeechStarted{Base: NewBase(KindSpeechStarted)}
}

// SpeechEnded marks when speech activity ends.
type SpeechEnded struct{ Base }

// NewSpeechEnded creates a speech ended event.
func NewSpeechEnded() SpeechEnded {
	return SpeechEnded{Base: NewBase(KindSpeechEnded)}
}

// VolumeLevel carries the current input volume in the backend's 0..1 scale.
// These arrive frequently and are never logged or stored.
type VolumeLevel struct {
	Base
	Level float64
}

// NewVolumeLevel creates a volume level event.
func NewVolumeLevel(level float64) VolumeLevel {
	return VolumeLevel{Base: NewBase(KindVolumeLevel), Level: level}
}
