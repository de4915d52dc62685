package orchestration

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aria-voice/aria-core/core/audio"
)

// audioInput is the capture-device facade used to normalize optional client
// wiring.
type audioInput struct {
	client AudioInput
}

func (a *audioInput) set(client AudioInput) {
	if a != nil {
		a.client = client
	}
}

func (a *audioInput) EncodingInfo() audio.EncodingInfo {
	if a == nil || a.client == nil {
		return audio.GetDefaultEncodingInfo()
	}
	return a.client.EncodingInfo()
}

func (a *audioInput) Start(ctx context.Context, onAudio func(audio []byte)) {
	if a == nil || a.client == nil {
		return
	}

	go func() {
		if err := a.client.Stream(ctx, onAudio); err != nil {
			recordedErr := fmt.Errorf("audio input stream failed: %w", err)
			span := trace.SpanFromContext(ctx)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}
	}()
}

func (a *audioInput) Close() {
	if a == nil || a.client == nil {
		return
	}
	a.client.Close()
}
