package orchestration

import "github.com/aria-voice/aria-core/core/audio"

// audioOutput is the playback-device facade. With no device configured the
// sink's audio callbacks are still delivered, the device calls just no-op.
type audioOutput struct {
	client AudioOutput
}

func (a *audioOutput) set(client AudioOutput) {
	if a != nil {
		a.client = client
	}
}

func (a *audioOutput) EncodingInfo() audio.EncodingInfo {
	if a == nil || a.client == nil {
		return audio.EncodingInfo{}
	}
	return a.client.EncodingInfo()
}

func (a *audioOutput) SendAudio(audio []byte) error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.SendAudio(audio)
}

func (a *audioOutput) ClearBuffer() {
	if a == nil || a.client == nil {
		return
	}
	a.client.ClearBuffer()
}

func (a *audioOutput) AwaitMark() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.AwaitMark()
}
