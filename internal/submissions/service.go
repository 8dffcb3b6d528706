package submissions

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"intake-backend/internal/applications"
	"intake-backend/internal/cv"
	"intake-backend/internal/email"
	"intake-backend/internal/extract"
	"intake-backend/internal/notify"
	"intake-backend/internal/shared/storage/object"
	"intake-backend/internal/shared/telemetry"
)

// Service runs the submission pipeline. Every dependency is injected;
// Mirror, Notifier, Sender, and Scheduler may be nil when the matching
// capability is not configured, in which case their stage is skipped.
type Service struct {
	Store      object.ObjectStore
	Extractor  extract.Extractor
	Structurer *cv.Structurer
	Sink       applications.RecordSink
	Mirror     applications.RecordSink
	Notifier   notify.Notifier
	Sender     email.Sender
	Scheduler  email.Scheduler

	// Status is reported in webhook metadata, e.g. "submitted".
	Status string

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Process executes the pipeline for one submission, strictly in stage
// order. Files already stored are kept even when a later stage fails so
// the submission can be reprocessed.
func (s *Service) Process(ctx context.Context, in SubmissionInput) (Result, error) {
	if len(in.Files) == 0 {
		return Result{}, stageFailed(StageValidation, fmt.Errorf("no files in submission"))
	}

	// Stored. Multiple attachments upload in parallel with a join
	// point before extraction; order among the uploads is unspecified.
	stored := make([]object.StoredFile, len(in.Files))
	g, gctx := errgroup.WithContext(ctx)
	for i := range in.Files {
		i := i
		file := in.Files[i]
		g.Go(func() error {
			sf, err := s.Store.Store(gctx, file.FileName, bytes.NewReader(file.Data))
			if err != nil {
				return fmt.Errorf("store %s: %w", file.FileName, err)
			}
			stored[i] = sf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, stageFailed(StageStorage, err)
	}

	primary := stored[0]
	primaryFile := in.Files[0]
	s.logStage(in.SubmissionID, "stored", map[string]any{"key": primary.Key})

	// TextExtracted.
	text, err := s.Extractor.Extract(ctx, extract.Document{
		Key:      primary.Key,
		FileName: primaryFile.FileName,
		MimeType: primary.MimeType,
		Data:     primaryFile.Data,
	})
	if err != nil {
		return Result{}, stageFailed(StageExtraction, err)
	}
	s.logStage(in.SubmissionID, "text_extracted", map[string]any{"chars": len(text)})

	// Structured. Shape problems degrade inside the structurer; only a
	// model transport failure surfaces here.
	structured, err := s.Structurer.Structure(ctx, text)
	if err != nil {
		return Result{}, stageFailed(StageStructuring, err)
	}
	structured.CVPublicLink = primary.PublicURL
	s.logStage(in.SubmissionID, "structured", nil)

	// Recorded.
	record, err := applications.BuildRecord(in.Name, in.Email, in.Phone, primary.PublicURL, structured, s.now())
	if err != nil {
		return Result{}, stageFailed(StageRecord, err)
	}
	if err := s.Sink.Append(ctx, record); err != nil {
		return Result{}, stageFailed(StageRecord, err)
	}
	if s.Mirror != nil {
		// The sheet is the system of record; a failed mirror write is
		// logged but does not fail the submission.
		if err := s.Mirror.Append(ctx, record); err != nil {
			telemetry.Warn("submission.mirror.failed", map[string]any{
				"submission_id": in.SubmissionID,
				"record_id":     record.ID,
				"error":         err.Error(),
			})
		}
	}
	s.logStage(in.SubmissionID, "recorded", map[string]any{"record_id": record.ID})

	// Notified. Failures surface to the caller but never roll back
	// the stored file or appended record.
	if err := s.notifyAll(ctx, in, structured); err != nil {
		return Result{}, stageFailed(StageNotification, err)
	}
	s.logStage(in.SubmissionID, "completed", nil)

	return Result{
		SubmissionID: in.SubmissionID,
		FileURL:      primary.PublicURL,
		RecordID:     record.ID,
	}, nil
}

func (s *Service) notifyAll(ctx context.Context, in SubmissionInput, structured cv.StructuredCV) error {
	if s.Notifier != nil {
		payload := notify.Payload{
			CVData: structured,
			Metadata: notify.Metadata{
				ApplicantName:      in.Name,
				Email:              in.Email,
				Status:             s.Status,
				CVProcessed:        true,
				ProcessedTimestamp: s.now().UTC().Format(time.RFC3339),
			},
		}
		if err := s.Notifier.Notify(ctx, payload); err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
	}

	if s.Sender != nil {
		if err := s.Sender.Send(ctx, email.ConfirmationMessage(in.Email, in.Name)); err != nil {
			return fmt.Errorf("confirmation email: %w", err)
		}
	}

	if s.Scheduler != nil {
		sendAt := email.NextBusinessDay(s.now())
		if err := s.Scheduler.Schedule(ctx, email.FollowUpMessage(in.Email, in.Name, sendAt)); err != nil {
			return fmt.Errorf("follow-up schedule: %w", err)
		}
	}

	return nil
}

func (s *Service) logStage(submissionID, stage string, extra map[string]any) {
	fields := map[string]any{
		"submission_id": submissionID,
		"stage":         stage,
	}
	for k, v := range extra {
		fields[k] = v
	}
	telemetry.Info("submission.stage", fields)
}
