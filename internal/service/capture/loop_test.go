package capture

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mindaccess/opendoor-backend/internal/domain/access"
	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
)

type stubSource struct {
	frame []byte
	err   error
}

func (s *stubSource) NextFrame(ctx context.Context) ([]byte, error) {
	return s.frame, s.err
}

type stubExtractor struct {
	embedding vector.Embedding
	err       error
}

func (s *stubExtractor) Extract(ctx context.Context, frame []byte) (vector.Embedding, float64, error) {
	return s.embedding, 0.9, s.err
}

type stubEngine struct {
	calls atomic.Int64
}

func (s *stubEngine) Decide(ctx context.Context, embedding vector.Embedding, zoneID uuid.UUID) *accessdecision.Outcome {
	s.calls.Add(1)
	return &accessdecision.Outcome{
		Decision:    access.DecisionDenied,
		MatchStatus: access.MatchStatusNoMatchFound,
	}
}

type cycleCounter struct {
	mu      sync.Mutex
	results map[string]int
}

func (c *cycleCounter) RecordCaptureCycle(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = make(map[string]int)
	}
	c.results[result]++
}

func (c *cycleCounter) count(result string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[result]
}

func testEmbedding(t *testing.T) vector.Embedding {
	t.Helper()
	e, err := vector.NewEmbedding(make([]float32, vector.Dim))
	require.NoError(t, err)
	return e
}

func runLoop(t *testing.T, loop *Loop, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	err := loop.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_CooldownLimitsDecisions(t *testing.T) {
	engine := &stubEngine{}
	counter := &cycleCounter{}
	loop := NewLoop(
		&stubSource{frame: []byte("frame")},
		&stubExtractor{embedding: testEmbedding(t)},
		engine,
		uuid.New(),
		5*time.Millisecond,
		time.Hour,
		counter,
		zap.NewNop(),
	)

	runLoop(t, loop, 100*time.Millisecond)

	assert.Equal(t, int64(1), engine.calls.Load(), "cooldown allows a single decision")
	assert.Equal(t, 1, counter.count(cycleOK))
	assert.Greater(t, counter.count(cycleSkipped), 0)
}

func TestLoop_RunsBackToBackWhenCooldownElapsed(t *testing.T) {
	engine := &stubEngine{}
	counter := &cycleCounter{}
	loop := NewLoop(
		&stubSource{frame: []byte("frame")},
		&stubExtractor{embedding: testEmbedding(t)},
		engine,
		uuid.New(),
		5*time.Millisecond,
		time.Millisecond,
		counter,
		zap.NewNop(),
	)

	runLoop(t, loop, 100*time.Millisecond)

	assert.Greater(t, engine.calls.Load(), int64(1))
}

func TestLoop_FrameFailureSkipsDecision(t *testing.T) {
	engine := &stubEngine{}
	counter := &cycleCounter{}
	loop := NewLoop(
		&stubSource{err: errors.New("camera offline")},
		&stubExtractor{embedding: testEmbedding(t)},
		engine,
		uuid.New(),
		5*time.Millisecond,
		time.Millisecond,
		counter,
		zap.NewNop(),
	)

	runLoop(t, loop, 60*time.Millisecond)

	assert.Equal(t, int64(0), engine.calls.Load())
	assert.Greater(t, counter.count(cycleNoFace), 0)
}

func TestLoop_ExtractionFailureSkipsDecision(t *testing.T) {
	engine := &stubEngine{}
	counter := &cycleCounter{}
	loop := NewLoop(
		&stubSource{frame: []byte("frame")},
		&stubExtractor{err: errors.New("no face detected")},
		engine,
		uuid.New(),
		5*time.Millisecond,
		time.Millisecond,
		counter,
		zap.NewNop(),
	)

	runLoop(t, loop, 60*time.Millisecond)

	assert.Equal(t, int64(0), engine.calls.Load())
	assert.Greater(t, counter.count(cycleNoFace), 0)
}

func TestFileFrameSource(t *testing.T) {
	t.Run("serves the fixture image", func(t *testing.T) {
		path := t.TempDir() + "/frame.jpg"
		require.NoError(t, os.WriteFile(path, []byte("image bytes"), 0o644))

		src := NewFileFrameSource(path)
		data, err := src.NextFrame(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []byte("image bytes"), data)
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		src := NewFileFrameSource("/nonexistent/frame.jpg")
		_, err := src.NextFrame(context.Background())
		require.Error(t, err)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		src := NewFileFrameSource("/nonexistent/frame.jpg")
		_, err := src.NextFrame(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
