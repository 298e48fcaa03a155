package domain

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/cableposter/internal/domain/stations"
	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Outcome string

const (
	OutcomeIngested    Outcome = "ingested"
	OutcomeNoMedia     Outcome = "skipped_no_media"
	OutcomeUnsupported Outcome = "skipped_unsupported"
	OutcomeDuplicate   Outcome = "skipped_duplicate"
	OutcomeFailed      Outcome = "failed"
)

type IngestConfig struct {
	TempDir       string
	StoragePrefix string
	PermalinkBase string // e.g. https://reddit.com
	Concurrency   int
	ItemTimeout   time.Duration
}

type ItemResult struct {
	PostID  string
	Outcome Outcome
	Err     error
}

type IngestReport struct {
	RunID    string
	Fetched  int
	Ingested int
	Skipped  int
	Failed   int
	Items    []ItemResult
}

type IngestService struct {
	repo ports.MediaRepository
	feed ports.FeedSource

	s1 *stations.S1FilterCandidate
	s2 *stations.S2DownloadMedia
	s3 *stations.S3UploadStorage

	cfg     IngestConfig
	log     *logger.ZapLogger
	events  *EventBus
	metrics *Metrics
}

func NewIngestService(
	repo ports.MediaRepository,
	feed ports.FeedSource,
	dl ports.MediaDownloader,
	store ports.ObjectStorage,
	cfg IngestConfig,
	log *logger.ZapLogger,
	events *EventBus,
	metrics *Metrics,
) *IngestService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = time.Minute
	}
	return &IngestService{
		repo:    repo,
		feed:    feed,
		s1:      stations.NewS1FilterCandidate(),
		s2:      stations.NewS2DownloadMedia(dl, filepath.Join(cfg.TempDir, "ingest"), log),
		s3:      stations.NewS3UploadStorage(store, cfg.StoragePrefix, log),
		cfg:     cfg,
		log:     log,
		events:  events,
		metrics: metrics,
	}
}

// IngestOnce pulls the feed listing and ingests every new still image in it.
// Only a feed failure is returned as an error; item failures are reported.
func (s *IngestService) IngestOnce(ctx context.Context) (IngestReport, error) {
	start := time.Now()
	report := IngestReport{RunID: uuid.NewString()}

	candidates, err := s.feed.Fetch(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ports.ErrFeedUnavailable, err)
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "ingest aborted: feed unavailable",
			Fields:  map[string]any{"runId": report.RunID},
			Error:   err,
		})
		s.metrics.cycle(CycleIngest, "feed_unavailable", start)
		s.events.emit(ports.PipelineEvent{RunID: report.RunID, Cycle: CycleIngest, Status: "feed_unavailable", Detail: err.Error()})
		return report, err
	}

	candidates = uniqueByID(candidates)
	report.Fetched = len(candidates)
	report.Items = make([]ItemResult, len(candidates))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			report.Items[i] = s.ingestItem(ctx, report.RunID, c)
			return nil
		})
	}
	_ = g.Wait()

	for _, it := range report.Items {
		switch it.Outcome {
		case OutcomeIngested:
			report.Ingested++
		case OutcomeFailed:
			report.Failed++
		default:
			report.Skipped++
		}
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "ingest cycle done",
		Fields: map[string]any{
			"runId":    report.RunID,
			"fetched":  report.Fetched,
			"ingested": report.Ingested,
			"skipped":  report.Skipped,
			"failed":   report.Failed,
			"dur":      time.Since(start).String(),
		},
	})
	s.metrics.cycle(CycleIngest, "ok", start)
	s.events.emit(ports.PipelineEvent{
		RunID:  report.RunID,
		Cycle:  CycleIngest,
		Status: "done",
		Detail: fmt.Sprintf("fetched=%d ingested=%d skipped=%d failed=%d", report.Fetched, report.Ingested, report.Skipped, report.Failed),
	})
	return report, nil
}

func (s *IngestService) ingestItem(ctx context.Context, runID string, c models.Candidate) (res ItemResult) {
	res.PostID = c.ID
	defer func() {
		s.metrics.item(CycleIngest, string(res.Outcome))
		s.logItem(runID, res)
	}()

	if err := s.s1.Run(c); err != nil {
		res.Outcome = OutcomeUnsupported
		if errors.Is(err, ports.ErrNoMedia) {
			res.Outcome = OutcomeNoMedia
		}
		return res
	}

	itemCtx, cancel := context.WithTimeout(ctx, s.cfg.ItemTimeout)
	defer cancel()

	exists, err := s.repo.ExistsByPostID(itemCtx, c.ID)
	if err != nil {
		return ItemResult{PostID: c.ID, Outcome: OutcomeFailed, Err: err}
	}
	if exists {
		return ItemResult{PostID: c.ID, Outcome: OutcomeDuplicate, Err: ports.ErrDuplicateItem}
	}

	path, err := s.s2.Run(itemCtx, c)
	if err != nil {
		return ItemResult{PostID: c.ID, Outcome: OutcomeFailed, Err: err}
	}
	defer func() {
		if err := stations.Release(path); err != nil {
			s.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "temp file not removed",
				Fields:  map[string]any{"postId": c.ID, "path": path},
				Error:   err,
			})
		}
	}()

	key, err := s.s3.Run(itemCtx, c.ID, path)
	if err != nil {
		return ItemResult{PostID: c.ID, Outcome: OutcomeFailed, Err: err}
	}

	rec := &models.MediaRecord{
		PostID:   c.ID,
		PictName: key,
		Title:    c.Title,
		Author:   c.Author,
		URL:      s.backLink(c.Permalink),
		IsPosted: false,
	}
	if err := s.repo.Insert(itemCtx, rec); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			return ItemResult{PostID: c.ID, Outcome: OutcomeDuplicate, Err: ports.ErrDuplicateItem}
		}
		return ItemResult{PostID: c.ID, Outcome: OutcomeFailed, Err: err}
	}

	return ItemResult{PostID: c.ID, Outcome: OutcomeIngested}
}

func (s *IngestService) backLink(permalink string) string {
	if strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		return permalink
	}
	return strings.TrimRight(s.cfg.PermalinkBase, "/") + permalink
}

func (s *IngestService) logItem(runID string, res ItemResult) {
	level := "debug"
	switch res.Outcome {
	case OutcomeIngested:
		level = "info"
	case OutcomeFailed:
		level = "warn"
	}
	s.log.Log(logger.LogEntry{
		Level:   level,
		Message: "ingest item " + string(res.Outcome),
		Fields:  map[string]any{"runId": runID, "postId": res.PostID},
		Error:   res.Err,
	})

	if res.Outcome == OutcomeIngested || res.Outcome == OutcomeFailed {
		ev := ports.PipelineEvent{RunID: runID, Cycle: CycleIngest, PostID: res.PostID, Status: string(res.Outcome)}
		if res.Err != nil {
			ev.Detail = res.Err.Error()
		}
		s.events.emit(ev)
	}
}

// uniqueByID keeps the first candidate per id so two workers never share a temp path.
func uniqueByID(in []models.Candidate) []models.Candidate {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, c := range in {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
