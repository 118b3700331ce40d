package voice

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/courtneylabs/widget-core/core/events"
	"github.com/courtneylabs/widget-core/core/transcript"
)

// Frame types delivered by the realtime backend.
const (
	frameTypeCallStart   = "call-start"
	frameTypeCallEnd     = "call-end"
	frameTypeSpeechStart = "speech-start"
	frameTypeSpeechEnd   = "speech-end"
	frameTypeVolumeLevel = "volume-level"
	frameTypeTranscript  = "transcript"
	frameTypeError       = "error"
)

const transcriptTypeFinal = "final"

type startFrame struct {
	Type               string              `json:"type"`
	AssistantID        string              `json:"assistantId"`
	AssistantOverrides *assistantOverrides `json:"assistantOverrides,omitempty"`
}

type assistantOverrides struct {
	VariableValues map[string]string `json:"variableValues"`
}

type mutedFrame struct {
	Type  string `json:"type"`
	Muted bool   `json:"muted"`
}

type stopFrame struct {
	Type string `json:"type"`
}

// processFrame normalizes one inbound frame into zero or one typed events.
// Interim transcripts and system-authored fragments are discarded here and
// never reach subscribers. Malformed frames become a ProtocolError carried
// by the error event rather than a crash.
func (c *Client) processFrame(data []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		c.emit(events.NewCallErrored(&ProtocolError{Reason: fmt.Sprintf("undecodable frame: %v", err)}))
		return
	}

	switch head.Type {
	case frameTypeCallStart:
		c.signalStarted(nil)
		c.emit(events.NewCallStarted())

	case frameTypeCallEnd:
		c.emit(events.NewCallEnded())

	case frameTypeSpeechStart:
		c.emit(events.NewSpeechStarted())

	case frameTypeSpeechEnd:
		c.emit(events.NewSpeechEnded())

	case frameTypeVolumeLevel:
		var frame struct {
			Level float64 `json:"level"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			c.emit(events.NewCallErrored(&ProtocolError{Reason: fmt.Sprintf("undecodable volume frame: %v", err)}))
			return
		}
		c.emit(events.NewVolumeLevel(frame.Level))

	case frameTypeTranscript:
		var frame struct {
			Role           string `json:"role"`
			Transcript     string `json:"transcript"`
			TranscriptType string `json:"transcriptType"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			c.emit(events.NewCallErrored(&ProtocolError{Reason: fmt.Sprintf("undecodable transcript frame: %v", err)}))
			return
		}
		if frame.TranscriptType != transcriptTypeFinal || frame.Transcript == "" {
			return
		}
		if frame.Role == string(transcript.RoleSystem) {
			return
		}
		role := transcript.RoleAssistant
		if frame.Role == string(transcript.RoleUser) {
			role = transcript.RoleUser
		}
		c.emit(events.NewTranscriptFinal(role, frame.Transcript))

	case frameTypeError:
		var frame struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			c.emit(events.NewCallErrored(&ProtocolError{Reason: fmt.Sprintf("undecodable error frame: %v", err)}))
			return
		}
		if frame.Message == "" {
			frame.Message = "realtime backend reported an error"
		}
		err := errors.New(frame.Message)
		c.signalStarted(err)
		c.emit(events.NewCallErrored(err))

	case "":
		c.emit(events.NewCallErrored(&ProtocolError{Reason: "frame without type"}))

	default:
		// Function invocations, conversation-state updates and any future
		// informational subtypes pass through untouched.
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			c.emit(events.NewCallErrored(&ProtocolError{Reason: fmt.Sprintf("undecodable frame: %v", err)}))
			return
		}
		c.emit(events.NewMessageReceived(head.Type, raw))
	}
}
