package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/repository"
	"github.com/halverson/notevault/internal/storage"
)

// GCConfig holds garbage collection settings.
type GCConfig struct {
	Interval    time.Duration
	GracePeriod time.Duration
	BatchSize   int
	DryRun      bool
}

// GCService reclaims attachment blobs no longer referenced by any
// attachment record. Cascade deletes remove rows but leave blobs behind;
// this sweep deletes them once they pass the grace period.
type GCService struct {
	attachments repository.AttachmentRepository
	blobs       storage.BlobStorage
	config      GCConfig
	logger      zerolog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// GCResult summarizes one garbage collection run.
type GCResult struct {
	Scanned    int
	Deleted    int
	Skipped    int
	BytesFreed int64
	Duration   time.Duration
}

// NewGCService creates a new garbage collection service.
func NewGCService(attachments repository.AttachmentRepository, blobs storage.BlobStorage, cfg GCConfig, logger zerolog.Logger) *GCService {
	return &GCService{
		attachments: attachments,
		blobs:       blobs,
		config:      cfg,
		logger:      logger.With().Str("service", "gc").Logger(),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start runs garbage collection on the configured interval until Stop is
// called.
func (s *GCService) Start(ctx context.Context) {
	go func() {
		defer close(s.doneCh)

		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		s.logger.Info().
			Dur("interval", s.config.Interval).
			Dur("grace_period", s.config.GracePeriod).
			Bool("dry_run", s.config.DryRun).
			Msg("Garbage collector started")

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				if _, err := s.Run(ctx); err != nil {
					s.logger.Error().Err(err).Msg("Garbage collection run failed")
				}
			}
		}
	}()
}

// Stop stops the background loop and waits for it to exit.
func (s *GCService) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// Run performs a single garbage collection sweep.
func (s *GCService) Run(ctx context.Context) (*GCResult, error) {
	start := time.Now()
	result := &GCResult{}
	cutoff := start.Add(-s.config.GracePeriod)

	err := s.blobs.List(ctx, func(info storage.BlobInfo) error {
		if s.config.BatchSize > 0 && result.Deleted >= s.config.BatchSize {
			return nil
		}

		result.Scanned++

		// Recent blobs may belong to an upload whose record is not yet
		// committed; leave them until they pass the grace period.
		if info.ModTime.After(cutoff) {
			result.Skipped++
			return nil
		}

		count, err := s.attachments.CountByContentHash(ctx, info.ContentHash)
		if err != nil {
			return fmt.Errorf("failed to count references for %s: %w", info.ContentHash, err)
		}
		if count > 0 {
			result.Skipped++
			return nil
		}

		if s.config.DryRun {
			s.logger.Info().
				Str("content_hash", info.ContentHash).
				Int64("size", info.Size).
				Msg("Would delete orphaned blob (dry run)")
			result.Deleted++
			result.BytesFreed += info.Size
			return nil
		}

		if err := s.blobs.Delete(ctx, info.ContentHash); err != nil {
			return fmt.Errorf("failed to delete blob %s: %w", info.ContentHash, err)
		}

		s.logger.Debug().
			Str("content_hash", info.ContentHash).
			Int64("size", info.Size).
			Msg("Orphaned blob deleted")

		result.Deleted++
		result.BytesFreed += info.Size
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)

	s.logger.Info().
		Int("scanned", result.Scanned).
		Int("deleted", result.Deleted).
		Int("skipped", result.Skipped).
		Int64("bytes_freed", result.BytesFreed).
		Dur("duration", result.Duration).
		Bool("dry_run", s.config.DryRun).
		Msg("Garbage collection completed")

	return result, nil
}
