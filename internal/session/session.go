// Package session runs the per-connection redaction pipeline: chunking,
// the transcription window, the holdback queue and the release of masked audio.
package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lexiqai/redaction-gateway/internal/align"
	"github.com/lexiqai/redaction-gateway/internal/audio"
	"github.com/lexiqai/redaction-gateway/internal/detect"
	"github.com/lexiqai/redaction-gateway/internal/observability"
	"github.com/lexiqai/redaction-gateway/internal/redact"
	"github.com/lexiqai/redaction-gateway/internal/stt"
)

const warmupNote = "warming up"

// Record describes one released chunk
type Record struct {
	SessionID            string           `json:"session_id"`
	MS                   int64            `json:"ms"`
	RawText              string           `json:"raw_text"`
	SafeText             string           `json:"safe_text"`
	Findings             []detect.Finding `json:"findings"`
	RegionsEmit          []redact.Region  `json:"regions_emit"`
	HoldbackMS           int64            `json:"holdback_ms"`
	QueueLen             int              `json:"queue_len"`
	RedactUntilAbsSample int64            `json:"redact_until_abs_sample"`
	ChunkStartSample     int64            `json:"chunk_start_sample"`
	Warmup               bool             `json:"warmup"`
	Note                 string           `json:"note,omitempty"`
}

// Emission is a released chunk: its record followed by its audio, which has
// the same length as the chunk that entered the queue
type Emission struct {
	Record Record
	Audio  []byte
}

// Session holds the state of one connection. It is driven by a single
// goroutine and is not safe for concurrent use.
type Session struct {
	id  string
	cfg Config

	transcriber stt.Transcriber
	detector    detect.Detector

	chunker *audio.Chunker
	ring    *audio.RingBuffer
	queue   *audio.HoldbackQueue
	tracker *redact.Tracker

	// Absolute index of the next sample to release
	emittedSamples int64

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// New creates a session. The transcriber is shared between sessions.
func New(id string, cfg Config, transcriber stt.Transcriber, detector detect.Detector, logger zerolog.Logger) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if transcriber == nil || detector == nil {
		return nil, fmt.Errorf("session requires a transcriber and a detector")
	}

	depth := audio.HoldbackDepth(cfg.Holdback, cfg.Chunk)

	metrics := observability.NewSessionMetrics(id)
	metrics.RecordSessionStart()

	logger.Debug().
		Int("holdback_depth", depth).
		Dur("chunk", cfg.Chunk).
		Dur("window", cfg.Window).
		Msg("Session created")

	return &Session{
		id:          id,
		cfg:         cfg,
		transcriber: transcriber,
		detector:    detector,
		chunker:     audio.NewChunker(cfg.Chunk),
		ring:        audio.NewRingBuffer(cfg.Window),
		queue:       audio.NewHoldbackQueue(depth),
		tracker:     redact.NewTracker(cfg.SampleRate, cfg.MergeGap, cfg.Hysteresis),
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Metrics returns the session's metrics tracker
func (s *Session) Metrics() *observability.Metrics {
	return s.metrics
}

// EmittedSamples returns the number of samples released so far
func (s *Session) EmittedSamples() int64 {
	return s.emittedSamples
}

// QueueLen returns the number of chunks held back
func (s *Session) QueueLen() int {
	return s.queue.Len()
}

// Push feeds one frame and returns the chunks released as a result, in order.
// Any error is fatal for the session.
func (s *Session) Push(ctx context.Context, frame audio.Frame) ([]Emission, error) {
	s.chunker.Push(frame)

	var out []Emission
	for {
		chunk, ok := s.chunker.PopChunkIfReady()
		if !ok {
			return out, nil
		}
		e, released, err := s.process(ctx, chunk)
		if err != nil {
			return out, err
		}
		if released {
			out = append(out, e)
		}
	}
}

// Close releases session resources. Held back audio is discarded.
func (s *Session) Close() {
	s.metrics.RecordSessionEnd()
	s.logger.Debug().
		Int64("emitted_samples", s.emittedSamples).
		Int("discarded_chunks", s.queue.Len()).
		Msg("Session closed")
}

func (s *Session) process(ctx context.Context, chunk audio.Chunk) (Emission, bool, error) {
	s.ring.Push(chunk)
	if err := s.queue.Push(chunk); err != nil {
		return Emission{}, false, err
	}
	if !s.queue.Ready() {
		return Emission{}, false, nil
	}

	head, _ := s.queue.Peek()
	endInWindow := s.ring.Duration() - s.cfg.Holdback
	startInWindow := endInWindow - head.Duration

	// The window has not grown past this chunk yet, so no transcription is needed
	if startInWindow < 0 {
		chunk, _ := s.queue.Pop()
		return s.emitWarmup(chunk), true, nil
	}

	transcript, rawText, err := s.transcribe(ctx)
	if err != nil {
		return Emission{}, false, err
	}
	findings := s.detector.Detect(transcript.Text)

	chunk, _ = s.queue.Pop()

	windowRegions := make([]redact.Region, 0, len(findings))
	for _, f := range findings {
		s.metrics.RecordFinding(f.Label)
		r, ok := transcript.Locate(f)
		if !ok {
			s.metrics.RecordAlignmentMiss()
			s.logger.Debug().
				Str("label", f.Label).
				Int("start", f.Start).
				Int("end", f.End).
				Msg("Finding did not align to any word")
			continue
		}
		windowRegions = append(windowRegions, r)
	}

	local := redact.Localize(windowRegions, startInWindow.Seconds(), endInWindow.Seconds())
	chunkStart := s.emittedSamples
	regions := s.tracker.Regions(chunkStart, chunk.Samples(), local)
	pcm := redact.Apply(chunk.PCM, chunkStart, s.cfg.SampleRate, regions, s.cfg.Tone)

	safeText := transcript.Text
	kind := observability.ChunkClear
	if len(regions) > 0 {
		safeText = s.cfg.SafeTextMarker
		kind = observability.ChunkRedacted
		s.metrics.RecordRedactedSeconds(redact.CoveredSeconds(regions))
	}

	if findings == nil {
		findings = []detect.Finding{}
	}
	if regions == nil {
		regions = []redact.Region{}
	}

	rec := s.record(chunk, chunkStart)
	rec.RawText = rawText
	rec.SafeText = safeText
	rec.Findings = findings
	rec.RegionsEmit = regions

	s.emittedSamples += int64(chunk.Samples())
	s.metrics.RecordChunk(kind)

	if len(regions) > 0 {
		s.logger.Info().
			Int64("chunk_start_sample", chunkStart).
			Int("findings", len(findings)).
			Int64("redact_until_abs_sample", rec.RedactUntilAbsSample).
			Msg("Redacted chunk")
	}

	return Emission{Record: rec, Audio: pcm}, true, nil
}

// transcribe returns the word-aligned transcript of the window together with
// the provider's own transcript text, which keeps its punctuation and casing.
func (s *Session) transcribe(ctx context.Context) (*align.Transcript, string, error) {
	window := s.ring.Dump()

	if s.cfg.SilenceRMSThreshold > 0 && audio.DetectSilence(window, s.cfg.SilenceRMSThreshold) {
		return align.NewTranscript(nil), "", nil
	}

	result, err := s.transcriber.Transcribe(ctx, window, s.cfg.SampleRate)
	if err != nil {
		return nil, "", fmt.Errorf("failed to transcribe %s window: %w", s.ring.Duration(), err)
	}
	return align.NewTranscript(result.Words), result.Text, nil
}

func (s *Session) emitWarmup(chunk audio.Chunk) Emission {
	chunkStart := s.emittedSamples

	rec := s.record(chunk, chunkStart)
	rec.Findings = []detect.Finding{}
	rec.RegionsEmit = []redact.Region{}
	rec.Warmup = true
	rec.Note = warmupNote

	s.emittedSamples += int64(chunk.Samples())
	s.metrics.RecordChunk(observability.ChunkWarmup)

	return Emission{Record: rec, Audio: chunk.PCM}
}

func (s *Session) record(chunk audio.Chunk, chunkStart int64) Record {
	return Record{
		SessionID:            s.id,
		MS:                   chunk.Duration.Milliseconds(),
		HoldbackMS:           s.cfg.Holdback.Milliseconds(),
		QueueLen:             s.queue.Len(),
		RedactUntilAbsSample: s.tracker.RedactUntil(),
		ChunkStartSample:     chunkStart,
	}
}
