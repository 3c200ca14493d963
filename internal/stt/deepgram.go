package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	prerecorded "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/lexiqai/redaction-gateway/internal/audio"
	"github.com/lexiqai/redaction-gateway/internal/config"
)

// DeepgramTranscriber implements Transcriber using Deepgram's pre-recorded API.
// Each context window is uploaded as a WAV file and transcribed with word timings.
type DeepgramTranscriber struct {
	client   *prerecorded.Client
	model    string
	language string
}

// NewDeepgramTranscriber creates a new Deepgram pre-recorded transcriber
func NewDeepgramTranscriber(cfg *config.Config) (*DeepgramTranscriber, error) {
	if cfg.DeepgramAPIKey == "" {
		return nil, fmt.Errorf("deepgram API key is required")
	}

	c := listenClient.NewREST(cfg.DeepgramAPIKey, &interfaces.ClientOptions{})

	return &DeepgramTranscriber{
		client:   prerecorded.New(c),
		model:    cfg.DeepgramModel,
		language: cfg.STTLanguage,
	}, nil
}

// Name identifies the backend
func (d *DeepgramTranscriber) Name() string {
	return config.ProviderDeepgram
}

// Transcribe uploads pcm as a WAV file and returns the first channel's words
func (d *DeepgramTranscriber) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (*Result, error) {
	wav, err := audio.EncodeWAV(pcm, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to encode window: %w", err)
	}

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:     d.model,
		Language:  d.language,
		Punctuate: true,
	}

	res, err := d.client.FromStream(ctx, bytes.NewReader(wav), options)
	if err != nil {
		return nil, fmt.Errorf("deepgram transcription failed: %w", err)
	}

	// Re-decode only the fields we consume so a missing results block is an
	// empty transcript rather than a nil dereference
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode deepgram response: %w", err)
	}
	return decodeDeepgramResponse(raw, d.language)
}

// HealthCheck reports whether the client is configured. Deepgram has no free
// probe endpoint, so no request is made.
func (d *DeepgramTranscriber) HealthCheck(ctx context.Context) (bool, error) {
	if d.client == nil {
		return false, fmt.Errorf("deepgram client is not initialized")
	}
	return true, nil
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string `json:"transcript"`
				Words      []struct {
					Word           string  `json:"word"`
					PunctuatedWord string  `json:"punctuated_word"`
					Start          float64 `json:"start"`
					End            float64 `json:"end"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func decodeDeepgramResponse(raw []byte, language string) (*Result, error) {
	var resp deepgramResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode deepgram response: %w", err)
	}

	result := &Result{Language: language}
	if len(resp.Results.Channels) == 0 {
		return result, nil
	}
	channel := resp.Results.Channels[0]
	if channel.DetectedLanguage != "" {
		result.Language = channel.DetectedLanguage
	}
	if len(channel.Alternatives) == 0 {
		return result, nil
	}

	// Get the best alternative (first one)
	alt := channel.Alternatives[0]
	result.Text = alt.Transcript
	result.Words = make([]Word, 0, len(alt.Words))
	for _, w := range alt.Words {
		text := w.PunctuatedWord
		if text == "" {
			text = w.Word
		}
		result.Words = append(result.Words, Word{Text: text, Start: w.Start, End: w.End})
	}

	return result, nil
}
