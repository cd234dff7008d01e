package capture

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
)

// FrameSource produces captured frames. The camera pipeline is external;
// only the file-backed test source ships with this service.
type FrameSource interface {
	NextFrame(ctx context.Context) ([]byte, error)
}

// Extractor turns a frame into a face embedding plus detection confidence.
type Extractor interface {
	Extract(ctx context.Context, frame []byte) (vector.Embedding, float64, error)
}

// CycleMetrics counts loop iterations by result.
type CycleMetrics interface {
	RecordCaptureCycle(result string)
}

const (
	cycleOK      = "ok"
	cycleNoFace  = "no_face"
	cycleSkipped = "skipped"
)

// Loop runs the sequential capture cycle: frame, embedding, decision, sleep.
// Decisions never overlap; one cycle completes before the next begins. Any
// cycle fault is logged and the loop continues.
type Loop struct {
	source    FrameSource
	extractor Extractor
	engine    accessdecision.Service
	zoneID    uuid.UUID
	interval  time.Duration
	cooldown  *rate.Limiter
	metrics   CycleMetrics
	logger    *zap.Logger
}

// NewLoop creates the capture loop. Cooldown limits how often a decision is
// actually attempted regardless of the frame interval.
func NewLoop(
	source FrameSource,
	extractor Extractor,
	engine accessdecision.Service,
	zoneID uuid.UUID,
	interval, cooldown time.Duration,
	metrics CycleMetrics,
	logger *zap.Logger,
) *Loop {
	return &Loop{
		source:    source,
		extractor: extractor,
		engine:    engine,
		zoneID:    zoneID,
		interval:  interval,
		cooldown:  rate.NewLimiter(rate.Every(cooldown), 1),
		metrics:   metrics,
		logger:    logger,
	}
}

// Run executes cycles until the context is canceled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("capture loop started",
		zap.Stringer("zone_id", l.zoneID),
		zap.Duration("interval", l.interval))

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("capture loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.cycle(ctx)
		}
	}
}

func (l *Loop) cycle(ctx context.Context) {
	if !l.cooldown.Allow() {
		l.record(cycleSkipped)
		return
	}

	frame, err := l.source.NextFrame(ctx)
	if err != nil {
		l.logger.Warn("frame capture failed", zap.Error(err))
		l.record(cycleNoFace)
		return
	}

	emb, confidence, err := l.extractor.Extract(ctx, frame)
	if err != nil {
		l.logger.Debug("no usable face in frame", zap.Error(err))
		l.record(cycleNoFace)
		return
	}

	out := l.engine.Decide(ctx, emb, l.zoneID)
	l.logger.Info("decision cycle completed",
		zap.Stringer("match_status", out.MatchStatus),
		zap.Stringer("decision", out.Decision),
		zap.Bool("granted", out.Granted),
		zap.Float64("detection_confidence", confidence),
		zap.Duration("latency", out.Latency))
	l.record(cycleOK)
}

func (l *Loop) record(result string) {
	if l.metrics != nil {
		l.metrics.RecordCaptureCycle(result)
	}
}
