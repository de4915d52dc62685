package orchestration

import (
	"time"

	"github.com/google/uuid"
)

// Query is an immutable transcribed user request. It is created when a
// transcript arrives and never mutated afterwards.
type Query struct {
	ID   string
	Text string
	// EmotionTags holds prosody scores when the transcript source provides
	// them; transcript sources without emotion analysis leave it nil.
	EmotionTags map[string]float64
	ReceivedAt  time.Time
}

func NewQuery(text string) Query {
	return Query{
		ID:         uuid.NewString(),
		Text:       text,
		ReceivedAt: time.Now(),
	}
}
