// Package events defines the typed realtime event contract emitted by the
// voice transport and consumed by the session controller.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - call.*: realtime call lifecycle boundaries.
//   - speech.*: voice activity of either party.
//   - transcript.*: recognizer output that survived finality filtering.
//   - message.*: informational backend messages that never become
//     transcript entries.
//
// Semantics used across the package:
//
//   - Final: recognizer output the backend considers settled; interim
//     fragments are filtered out before an event is ever constructed.
//   - Raw: the decoded backend payload passed through for diagnostic
//     subscribers, never converted inward.
//
// call events
//
//   - CallStarted (call.started): the realtime session was established.
//   - CallEnded (call.ended): the realtime session terminated; terminal for
//     the session.
//   - CallErrored (call.errored): the backend or connection reported a
//     failure; carries the error.
//
// speech events
//
//   - SpeechStarted (speech.started): speech activity began.
//   - SpeechEnded (speech.ended): speech activity ended.
//   - VolumeLevel (speech.volume_level): current input volume sample.
//
// transcript events
//
//   - TranscriptFinal (transcript.final): a settled transcript fragment with
//     its normalized author role. Only user and assistant roles occur here.
//
// message events
//
//   - MessageReceived (message.received): a backend message of a subtype
//     that carries no transcript text, such as function invocations or
//     conversation-state updates.
package events
