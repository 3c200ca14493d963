package stt

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/lexiqai/redaction-gateway/internal/audio"
	"github.com/lexiqai/redaction-gateway/internal/config"
)

// OpenAITranscriber implements Transcriber using the audio transcriptions API
// with verbose_json output and word-level timestamps
type OpenAITranscriber struct {
	client   *openai.Client
	model    string
	language string
}

// NewOpenAITranscriber creates a new OpenAI (or compatible) transcriber.
// OPENAI_BASE_URL points it at a self-hosted Whisper-compatible server.
func NewOpenAITranscriber(cfg *config.Config) (*OpenAITranscriber, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	return &OpenAITranscriber{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.OpenAIModel,
		language: cfg.STTLanguage,
	}, nil
}

// Name identifies the backend
func (o *OpenAITranscriber) Name() string {
	return config.ProviderOpenAI
}

// Transcribe uploads pcm as window.wav and maps the returned words
func (o *OpenAITranscriber) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (*Result, error) {
	wav, err := audio.EncodeWAV(pcm, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to encode window: %w", err)
	}

	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: "window.wav",
		Reader:   bytes.NewReader(wav),
		Language: o.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	}

	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai transcription failed: %w", err)
	}

	result := &Result{
		Text:     resp.Text,
		Language: resp.Language,
		Words:    make([]Word, 0, len(resp.Words)),
	}
	if result.Language == "" {
		result.Language = o.language
	}
	for _, w := range resp.Words {
		result.Words = append(result.Words, Word{Text: w.Word, Start: w.Start, End: w.End})
	}

	return result, nil
}

// HealthCheck lists the configured model to verify credentials and reachability
func (o *OpenAITranscriber) HealthCheck(ctx context.Context) (bool, error) {
	if _, err := o.client.GetModel(ctx, o.model); err != nil {
		return false, fmt.Errorf("openai model %s unavailable: %w", o.model, err)
	}
	return true, nil
}
