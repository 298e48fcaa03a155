package domain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/Vovarama1992/cableposter/internal/domain/stations"
	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
	"github.com/google/uuid"
)

type PublishConfig struct {
	TempDir   string
	FeedLabel string // "Via:" line of the caption
}

type PublishService struct {
	repo ports.MediaRepository

	s4 *stations.S4FetchStored
	s5 *stations.S5Publish

	cfg     PublishConfig
	log     *logger.ZapLogger
	events  *EventBus
	metrics *Metrics

	// pick returns a uniform index in [0, n)
	pick    func(n int) int
	release func(path string) error
}

func NewPublishService(
	repo ports.MediaRepository,
	store ports.ObjectStorage,
	platform ports.SocialPlatform,
	cfg PublishConfig,
	log *logger.ZapLogger,
	events *EventBus,
	metrics *Metrics,
) *PublishService {
	return &PublishService{
		repo:    repo,
		s4:      stations.NewS4FetchStored(store, filepath.Join(cfg.TempDir, "publish"), log),
		s5:      stations.NewS5Publish(platform, log),
		cfg:     cfg,
		log:     log,
		events:  events,
		metrics: metrics,
		pick:    rand.IntN,
		release: stations.Release,
	}
}

// PublishOnce posts the oldest unpublished record, or replays a random
// published one when the queue is empty. The record is marked published
// only after the platform accepted the post.
func (s *PublishService) PublishOnce(ctx context.Context) (*models.MediaRecord, error) {
	start := time.Now()
	runID := uuid.NewString()

	rec, replay, err := s.selectRecord(ctx)
	if err != nil {
		level := "error"
		result := "store_error"
		if errors.Is(err, ports.ErrNoMediaAvailable) {
			level = "warn"
			result = "no_media"
		}
		s.finish(runID, "", level, result, start, err)
		return nil, err
	}

	fields := map[string]any{"runId": runID, "postId": rec.PostID, "replay": replay}
	s.log.Log(logger.LogEntry{Level: "info", Message: "publish selected", Fields: fields})

	path, err := s.s4.Run(ctx, rec)
	if err != nil {
		s.finish(runID, rec.PostID, "error", "download_failed", start, err)
		return rec, err
	}

	withMedia, err := s.s5.Run(ctx, rec.PostID, path, Caption(*rec, s.cfg.FeedLabel))
	if err != nil {
		_ = s.release(path)
		s.finish(runID, rec.PostID, "error", "post_failed", start, err)
		return rec, err
	}

	if err := s.release(path); err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "temp file not removed",
			Fields:  map[string]any{"postId": rec.PostID, "path": path},
			Error:   err,
		})
	}

	if err := s.repo.MarkPublished(ctx, rec); err != nil {
		err = fmt.Errorf("mark published: %w", err)
		s.finish(runID, rec.PostID, "error", "mark_failed", start, err)
		return rec, err
	}

	if withMedia {
		s.metrics.item(CyclePublish, "with_media")
	} else {
		s.metrics.item(CyclePublish, "text_only")
	}
	s.finish(runID, rec.PostID, "info", "published", start, nil)
	return rec, nil
}

func (s *PublishService) selectRecord(ctx context.Context) (*models.MediaRecord, bool, error) {
	rec, err := s.repo.FindUnpublished(ctx)
	if err != nil {
		return nil, false, err
	}
	if rec != nil {
		return rec, false, nil
	}

	pool, err := s.repo.FindAllPublished(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(pool) == 0 {
		return nil, false, ports.ErrNoMediaAvailable
	}

	picked := pool[s.pick(len(pool))]
	return &picked, true, nil
}

func (s *PublishService) finish(runID, postID, level, result string, start time.Time, err error) {
	s.log.Log(logger.LogEntry{
		Level:   level,
		Message: "publish cycle " + result,
		Fields:  map[string]any{"runId": runID, "postId": postID, "dur": time.Since(start).String()},
		Error:   err,
	})
	s.metrics.cycle(CyclePublish, result, start)

	ev := ports.PipelineEvent{RunID: runID, Cycle: CyclePublish, PostID: postID, Status: result}
	if err != nil {
		ev.Detail = err.Error()
	}
	s.events.emit(ev)
}
