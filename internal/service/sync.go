package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"netsync/internal/adapter"
	"netsync/internal/codec"
	"netsync/internal/config"
	"netsync/internal/domain"
	"netsync/internal/metrics"
	"netsync/internal/repository"
	"netsync/internal/source"
)

// RunReport is what a finished run hands back to the caller
type RunReport struct {
	Run        repository.Run
	Snapshot   *domain.Snapshot
	Quarantine []adapter.QuarantineRecord
	// Changed is false when the snapshot matches the latest stored run
	Changed bool
}

// SyncService runs the load pipeline and records its outcome
type SyncService struct {
	mu       sync.Mutex // one run at a time
	client   source.Client
	cfg      *config.Config
	repo     repository.Repository
	metrics  *metrics.Registry
	eventBus *EventBus
	log      *zap.Logger
	now      func() time.Time
}

// NewSyncService creates a new sync service. repo and reg may be nil.
func NewSyncService(client source.Client, cfg *config.Config, repo repository.Repository, reg *metrics.Registry, eventBus *EventBus, logger *zap.Logger) *SyncService {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if eventBus == nil {
		eventBus = NewEventBus()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		client:   client,
		cfg:      cfg,
		repo:     repo,
		metrics:  reg,
		eventBus: eventBus,
		log:      logger.Named("sync"),
		now:      time.Now,
	}
}

// Run loads the controller inventory once. A load failure is recorded as a
// failed run and returned. Persistence and export failures after a
// successful load are returned as well, with the report still filled in.
func (s *SyncService) Run(ctx context.Context) (*RunReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := s.now().UTC()
	s.eventBus.Publish(Event{Type: EventRunStarted})

	a, err := adapter.New(s.client, &s.cfg.Load, s.log)
	if err != nil {
		s.recordFailure(ctx, started, err)
		return nil, err
	}

	result, err := a.Load(ctx)
	if err != nil {
		s.recordFailure(ctx, started, err)
		return nil, err
	}

	snap, err := result.Snapshot()
	if err != nil {
		s.recordFailure(ctx, started, err)
		return nil, err
	}

	report := &RunReport{
		Run: repository.Run{
			ID:          result.RunID,
			Namespace:   result.Namespace,
			Status:      repository.RunStatusSucceeded,
			Fingerprint: snap.Fingerprint(),
			StartedAt:   started,
			FinishedAt:  s.now().UTC(),
			Stats:       result.Stats,
		},
		Snapshot:   snap,
		Quarantine: result.Quarantine.Records(),
		Changed:    true,
	}

	s.recordMetrics(report, result.Quarantine.ByReason())

	var errs []error
	if err := s.persist(ctx, report); err != nil {
		errs = append(errs, err)
	}
	if err := s.export(report); err != nil {
		errs = append(errs, err)
	}

	s.log.Info("Run complete",
		zap.String("run_id", report.Run.ID),
		zap.String("fingerprint", report.Run.Fingerprint),
		zap.Bool("changed", report.Changed),
		zap.Duration("duration", report.Run.Duration()))

	s.eventBus.Publish(Event{
		Type: EventRunCompleted,
		Payload: map[string]interface{}{
			"run_id":      report.Run.ID,
			"fingerprint": report.Run.Fingerprint,
			"changed":     report.Changed,
			"loaded":      report.Run.Stats.Loaded,
			"quarantined": report.Run.Stats.Quarantined,
		},
	})

	return report, errors.Join(errs...)
}

// recordFailure stores a failed run and counts it
func (s *SyncService) recordFailure(ctx context.Context, started time.Time, cause error) {
	run := &repository.Run{
		ID:         uuid.NewString(),
		Namespace:  s.cfg.Load.Namespace(),
		Status:     repository.RunStatusFailed,
		Error:      cause.Error(),
		StartedAt:  started,
		FinishedAt: s.now().UTC(),
	}

	s.log.Error("Run failed", zap.String("run_id", run.ID), zap.Error(cause))

	if s.metrics != nil {
		s.metrics.RecordRun(run.Status, run.Duration())
		s.writeTextfile()
	}

	if s.repo != nil {
		// The run context may be what failed
		if err := s.repo.SaveRun(context.WithoutCancel(ctx), run, nil, nil); err != nil {
			s.log.Warn("Unable to record failed run", zap.Error(err))
		}
	}

	s.eventBus.Publish(Event{
		Type:    EventRunFailed,
		Payload: map[string]string{"run_id": run.ID, "error": run.Error},
	})
}

func (s *SyncService) recordMetrics(report *RunReport, quarantined map[string]int) {
	if s.metrics == nil {
		return
	}
	for _, kind := range domain.Kinds() {
		s.metrics.SetNodeCount(string(kind), report.Snapshot.Count(kind))
	}
	s.metrics.RecordDevices(report.Run.Stats.Input, report.Run.Stats.Excluded, quarantined)
	s.metrics.RecordRun(report.Run.Status, report.Run.Duration())
	s.writeTextfile()
}

func (s *SyncService) writeTextfile() {
	if s.cfg.Metrics.TextfilePath == "" {
		return
	}
	if err := s.metrics.WriteTextfile(s.cfg.Metrics.TextfilePath); err != nil {
		s.log.Warn("Unable to write metrics textfile", zap.Error(err))
	}
}

// persist saves the run after comparing it with the latest stored run
func (s *SyncService) persist(ctx context.Context, report *RunReport) error {
	if s.repo == nil {
		return nil
	}

	latest, err := s.repo.LatestRun(ctx)
	if err != nil {
		s.log.Warn("Unable to read latest run", zap.Error(err))
	} else if latest != nil && latest.Fingerprint == report.Run.Fingerprint {
		report.Changed = false
	}

	if err := s.repo.SaveRun(ctx, &report.Run, report.Snapshot, report.Quarantine); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// export writes the snapshot and quarantine to the configured file
func (s *SyncService) export(report *RunReport) error {
	path := s.cfg.Export.Path
	if path == "" {
		return nil
	}

	c, err := codec.ForFormat(s.cfg.Export.Format)
	if err != nil {
		return err
	}

	doc := &codec.Document{Snapshot: report.Snapshot, Quarantine: report.Quarantine}
	if err := codec.WriteFile(path, c, doc, s.cfg.Export.Compress); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	s.log.Info("Snapshot exported",
		zap.String("path", path),
		zap.String("format", c.Format()),
		zap.Bool("compressed", s.cfg.Export.Compress))

	s.eventBus.Publish(Event{
		Type:    EventExported,
		Payload: map[string]string{"run_id": report.Run.ID, "path": path},
	})
	return nil
}

// History returns stored runs newest first
func (s *SyncService) History(ctx context.Context, limit int) ([]repository.Run, error) {
	if s.repo == nil {
		return nil, errors.New("run history requires a database")
	}
	return s.repo.ListRuns(ctx, limit)
}
