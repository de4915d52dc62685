package orchestration

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UtterancePriority orders output classes within a query: an
// acknowledgement opens the stream, progress bridges waiting time and a
// final closes it.
type UtterancePriority string

const (
	PriorityAcknowledgement UtterancePriority = "acknowledgement"
	PriorityProgress        UtterancePriority = "progress"
	PriorityFinal           UtterancePriority = "final"
)

// SpeechUtterance is one ordered unit of output text. At most one utterance
// is ever in flight to the speech output sink.
type SpeechUtterance struct {
	ID         string
	QueryID    string
	Priority   UtterancePriority
	Text       string
	EnqueuedAt time.Time
}

func newUtterance(queryID string, priority UtterancePriority, text string) SpeechUtterance {
	return SpeechUtterance{
		ID:         uuid.NewString(),
		QueryID:    queryID,
		Priority:   priority,
		Text:       text,
		EnqueuedAt: time.Now(),
	}
}

// clampWords caps a phrase at max words. Progress labels stay short so they
// cannot crowd the playback channel.
func clampWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:max], " ")
}
