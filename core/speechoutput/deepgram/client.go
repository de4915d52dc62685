package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"

	"github.com/aria-voice/aria-core/core/audio"
	"github.com/aria-voice/aria-core/core/speechoutput"
	"github.com/gorilla/websocket"
)

// SpeechClient synthesizes one utterance per Speak call over the Deepgram
// speak websocket. The voice is fixed at construction.
type SpeechClient struct {
	voice        deepgramVoice
	encodingInfo audio.EncodingInfo
}

func NewSpeechClient(ctx context.Context, voice deepgramVoice) (*SpeechClient, error) {
	client := &SpeechClient{
		voice:        defaultVoice,
		encodingInfo: audio.GetDefaultEncodingInfo(),
	}

	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	client.voice = voice

	return client, nil
}

// Speak synthesizes the passed text and blocks until all audio has been
// produced or an error occurs. Audio chunks are delivered through the
// callback options.
func (c *SpeechClient) Speak(ctx context.Context, text string, opts ...speechoutput.SpeakOption) error {
	options := speechoutput.SpeakOptions{
		SpeechAudioCallback: func([]byte) {},
		SpeechEndedCallback: func() {},
		EncodingInfo:        c.encodingInfo,
	}
	for _, opt := range opts {
		opt(&options)
	}

	conn, err := connectWebsocket(c.voice, options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "Speak", Text: text}); err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}
	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "Flush"}); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read error: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			options.SpeechAudioCallback(msg)

		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				options.SpeechEndedCallback()
				if err := conn.WriteJSON(struct {
					Type string `json:"type"`
				}{Type: "Close"}); err != nil {
					return nil
				}
				return nil
			}
		}
	}
}

func connectWebsocket(voice deepgramVoice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}
