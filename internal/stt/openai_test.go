package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/redaction-gateway/internal/config"
)

func TestOpenAITranscriber_Transcribe(t *testing.T) {
	var gotFormat, gotLanguage, gotFilename string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		gotFormat = r.FormValue("response_format")
		gotLanguage = r.FormValue("language")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFilename = header.Filename
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"task":     "transcribe",
			"language": "korean",
			"duration": 2.0,
			"text":     "call me at 010-1234-5678",
			"words": []map[string]interface{}{
				{"word": "call", "start": 0.0, "end": 0.3},
				{"word": "me", "start": 0.3, "end": 0.5},
				{"word": "at", "start": 0.5, "end": 0.6},
				{"word": "010-1234-5678", "start": 0.7, "end": 1.9},
			},
		})
	}))
	defer srv.Close()

	tr, err := NewOpenAITranscriber(&config.Config{
		OpenAIAPIKey:  "test-key",
		OpenAIModel:   "whisper-1",
		OpenAIBaseURL: srv.URL + "/v1",
		STTLanguage:   "ko",
	})
	require.NoError(t, err)

	res, err := tr.Transcribe(context.Background(), make([]byte, 3200), 16000)
	require.NoError(t, err)

	assert.Equal(t, "verbose_json", gotFormat)
	assert.Equal(t, "ko", gotLanguage)
	assert.True(t, strings.HasSuffix(gotFilename, ".wav"))
	assert.Equal(t, "korean", res.Language)
	require.Len(t, res.Words, 4)
	assert.Equal(t, Word{Text: "010-1234-5678", Start: 0.7, End: 1.9}, res.Words[3])
}

func TestOpenAITranscriber_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	tr, err := NewOpenAITranscriber(&config.Config{
		OpenAIAPIKey:  "test-key",
		OpenAIModel:   "whisper-1",
		OpenAIBaseURL: srv.URL + "/v1",
	})
	require.NoError(t, err)

	_, err = tr.Transcribe(context.Background(), make([]byte, 3200), 16000)
	assert.Error(t, err)

	healthy, err := tr.HealthCheck(context.Background())
	assert.False(t, healthy)
	assert.Error(t, err)
}

func TestOpenAITranscriber_RejectsEmptyAudio(t *testing.T) {
	tr, err := NewOpenAITranscriber(&config.Config{OpenAIAPIKey: "k", OpenAIModel: "whisper-1"})
	require.NoError(t, err)

	_, err = tr.Transcribe(context.Background(), nil, 16000)
	assert.Error(t, err)
}
