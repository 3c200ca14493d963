package stt

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lexiqai/redaction-gateway/internal/config"
	"github.com/lexiqai/redaction-gateway/internal/resilience"
)

const (
	// GRPCServiceName is the service a self-hosted transcription worker registers
	GRPCServiceName = "redact.v1.Transcriber"

	transcribeMethod = "/" + GRPCServiceName + "/Transcribe"
)

// GRPCTranscriber implements Transcriber against a self-hosted worker.
// Requests and responses are google.protobuf.Struct messages:
//
//	request:  {audio: base64 PCM16LE, sample_rate, language}
//	response: {text, language, words: [{text, start, end}]}
type GRPCTranscriber struct {
	conn     *grpc.ClientConn
	health   healthpb.HealthClient
	addr     string
	language string
	retry    *resilience.RetryConfig
}

// NewGRPCTranscriber creates a client for the worker at STT_GRPC_ADDR.
// The connection is established lazily; extra dial options are appended.
func NewGRPCTranscriber(cfg *config.Config, extra ...grpc.DialOption) (*GRPCTranscriber, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		// Keepalive settings for long-lived connections
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             3 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(cfg.STTGRPCAddr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription client for %s: %w", cfg.STTGRPCAddr, err)
	}

	return &GRPCTranscriber{
		conn:     conn,
		health:   healthpb.NewHealthClient(conn),
		addr:     cfg.STTGRPCAddr,
		language: cfg.STTLanguage,
		retry: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        2 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		},
	}, nil
}

// Name identifies the backend
func (g *GRPCTranscriber) Name() string {
	return config.ProviderGRPC
}

// Transcribe sends the window to the worker, retrying only while it is unavailable
func (g *GRPCTranscriber) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (*Result, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"audio":       base64.StdEncoding.EncodeToString(pcm),
		"sample_rate": sampleRate,
		"language":    g.language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}

	resp := &structpb.Struct{}
	err = resilience.Retry(ctx, func() error {
		return g.conn.Invoke(ctx, transcribeMethod, req, resp)
	}, g.retry, isUnavailable)
	if err != nil {
		return nil, fmt.Errorf("transcription worker at %s failed: %w", g.addr, err)
	}

	return decodeStructResult(resp, g.language)
}

// HealthCheck queries the standard gRPC health service for the worker
func (g *GRPCTranscriber) HealthCheck(ctx context.Context) (bool, error) {
	resp, err := g.health.Check(ctx, &healthpb.HealthCheckRequest{Service: GRPCServiceName})
	if err != nil {
		return false, fmt.Errorf("health check failed: %w", err)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// Close closes the gRPC connection
func (g *GRPCTranscriber) Close() error {
	return g.conn.Close()
}

// isUnavailable reports whether the worker could not be reached or is not
// serving yet. Every other status is returned to the caller unchanged.
func isUnavailable(err error) bool {
	return status.Code(err) == codes.Unavailable
}

func decodeStructResult(resp *structpb.Struct, language string) (*Result, error) {
	fields := resp.GetFields()

	result := &Result{
		Text:     fields["text"].GetStringValue(),
		Language: fields["language"].GetStringValue(),
	}
	if result.Language == "" {
		result.Language = language
	}

	words := fields["words"].GetListValue().GetValues()
	result.Words = make([]Word, 0, len(words))
	for i, v := range words {
		w := v.GetStructValue()
		if w == nil {
			return nil, fmt.Errorf("word %d is not an object", i)
		}
		wf := w.GetFields()
		result.Words = append(result.Words, Word{
			Text:  wf["text"].GetStringValue(),
			Start: wf["start"].GetNumberValue(),
			End:   wf["end"].GetNumberValue(),
		})
	}

	return result, nil
}
