// Package events defines the typed orchestration event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - query.*
//   - routing.*
//   - tool_call.*
//   - research.*
//   - utterance.*
//
// Semantics used across the package:
//
//   - Received: a new query entered the session.
//   - Decided: a terminal routing outcome for the query was produced.
//   - Fallback: the routing outcome was substituted locally after an
//     unusable adapter response.
//   - Enqueued: an utterance was accepted into the playback queue.
//   - Played/Dropped: terminal playback outcome for one utterance.
//   - Closed: no further utterances will ever be emitted for the query.
//
// query events
//
//   - QueryReceived (query.received): a transcribed query entered the
//     session.
//   - QueryClosed (query.closed): the query's utterance stream is closed;
//     includes the close reason (answered, abandoned, failed).
//
// routing events
//
//   - RoutingDecided (routing.decided): the reasoning backend produced a
//     usable decision; includes route and, for tool routes, the tool name.
//   - RoutingFallback (routing.fallback): the adapter response was unusable
//     (unknown tool, malformed arguments, round limit) and a direct apology
//     answer was substituted.
//
// tool_call events
//
//   - ToolCallStarted (tool_call.started): quick tool execution started.
//   - ToolCallCompleted (tool_call.completed): quick tool execution
//     completed.
//   - ToolCallFailed (tool_call.failed): quick tool execution failed.
//
// research events
//
//   - ResearchStarted (research.started): the query was handed to the
//     research backend.
//   - ResearchProgress (research.progress): the backend reported a phase
//     label with a monotonic sequence number.
//   - ResearchCompleted (research.completed): the backend produced its final
//     answer.
//   - ResearchFailed (research.failed): the backend reported failure or the
//     hard timeout elapsed.
//
// utterance events
//
//   - UtteranceEnqueued (utterance.enqueued): the sequencer accepted an
//     utterance into the playback queue.
//   - UtteranceStarted (utterance.started): the utterance was handed to the
//     speech output sink.
//   - UtterancePlayed (utterance.played): the sink confirmed playback.
//   - UtteranceDropped (utterance.dropped): the utterance was discarded
//     before or during playback; includes the cause (superseded, throttled,
//     playback_failed, abandoned).
package events
