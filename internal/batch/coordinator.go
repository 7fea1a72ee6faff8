// Package batch orchestrates speaker extraction jobs over a directory of
// GLL files. Jobs run strictly sequentially: the vendor application is a
// single-instance desktop program, so the coordinator owns a non-blocking
// session lock instead of fanning out across workers.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gll2txt/internal/completion"
	"gll2txt/internal/domain"
)

// SpeakerDirectory is the metadata lookup the coordinator consumes. A nil
// record with a nil error means no metadata exists yet.
type SpeakerDirectory interface {
	Get(gllFile string) (*domain.SpeakerRecord, error)
}

// Extractor runs the full export protocol for one job.
type Extractor interface {
	Extract(ctx context.Context, job domain.SpeakerJob) error
}

// Coordinator enumerates GLL files and feeds them one at a time through the
// automation driver.
type Coordinator struct {
	directory SpeakerDirectory
	extractor Extractor
	oracle    *completion.Oracle
	events    *EventBus
	log       *zap.SugaredLogger

	// session guards the single vendor-application instance. Acquired
	// non-blockingly per job; a busy lock defers the job instead of
	// queueing behind an unbounded wait.
	session sync.Mutex
	stop    atomic.Bool

	walkDir func(root string, fn fs.WalkDirFunc) error
}

// New creates a coordinator scanning the real filesystem.
func New(
	directory SpeakerDirectory,
	extractor Extractor,
	oracle *completion.Oracle,
	events *EventBus,
	logger *zap.SugaredLogger,
) *Coordinator {
	return &Coordinator{
		directory: directory,
		extractor: extractor,
		oracle:    oracle,
		events:    events,
		log:       logger,
		walkDir:   filepath.WalkDir,
	}
}

// NewForTests creates a coordinator with an injectable directory walker.
func NewForTests(
	directory SpeakerDirectory,
	extractor Extractor,
	oracle *completion.Oracle,
	events *EventBus,
	logger *zap.SugaredLogger,
	walkDir func(root string, fn fs.WalkDirFunc) error,
) *Coordinator {
	c := New(directory, extractor, oracle, events, logger)
	c.walkDir = walkDir
	return c
}

// Stop requests a halt at the next job boundary. Jobs already inside the
// automation protocol run to completion: there is no safe mid-step abort.
func (c *Coordinator) Stop() {
	c.stop.Store(true)
}

// TryAcquireSession attempts to take the vendor session lock without
// blocking. Exposed so an external caller holding a session (a manual
// single-file run) participates in the same exclusion.
func (c *Coordinator) TryAcquireSession() bool {
	return c.session.TryLock()
}

// ReleaseSession releases a lock taken by TryAcquireSession.
func (c *Coordinator) ReleaseSession() {
	c.session.Unlock()
}

// Run processes every GLL file under gllRoot. Per-job failures never abort
// the batch; they surface as outcomes and log events. The result is OK only
// when every file was attempted without deferral and the batch was not
// stopped.
func (c *Coordinator) Run(ctx context.Context, gllRoot string) (domain.BatchResult, error) {
	batchID := uuid.NewString()
	result := domain.BatchResult{}

	c.logf(batchID, "info", "Searching GLL files in %s", gllRoot)
	files, err := c.scan(gllRoot)
	if err != nil {
		return result, fmt.Errorf("scan %s: %w", gllRoot, err)
	}

	result.Total = len(files)
	if len(files) == 0 {
		c.logf(batchID, "warn", "No GLL files found in the specified directory.")
		c.complete(batchID, &result)
		return result, nil
	}
	c.logf(batchID, "info", "Found %d GLL files.", len(files))

	deferred := 0
	for index, file := range files {
		if err := ctx.Err(); err != nil || c.stop.Load() {
			c.logf(batchID, "warn", "Batch stopped before %s", file)
			result.Stopped = true
			break
		}

		outcome := c.processFile(ctx, batchID, file)
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Kind {
		case domain.OutcomeSuccess:
			result.Completed++
		case domain.OutcomeDeferred:
			deferred++
			if outcome.Reason == reasonMissingMetadata {
				result.MissingMetadata = append(result.MissingMetadata, file)
			}
		}

		percent := (index + 1) * 100 / len(files)
		c.events.Publish(Event{
			BatchID: batchID,
			Type:    EventTypeProgress,
			GLLFile: file,
			Percent: percent,
		})
	}

	result.OK = !result.Stopped && deferred == 0
	c.complete(batchID, &result)
	return result, nil
}

const (
	reasonMissingMetadata = "no speaker metadata"
	reasonSessionBusy     = "vendor application busy"
)

// processFile disposes of one GLL file: metadata lookup, skip flag,
// completion fast path, session lock, extraction.
func (c *Coordinator) processFile(ctx context.Context, batchID, file string) domain.ProcessingOutcome {
	outcome := domain.ProcessingOutcome{Job: domain.SpeakerJob{GLLFile: file}}

	record, err := c.directory.Get(file)
	if err != nil {
		c.logf(batchID, "error", "Could not read speaker data for %s: %v", file, err)
		outcome.Kind = domain.OutcomeFailed
		outcome.Reason = err.Error()
		return c.publishOutcome(batchID, outcome)
	}
	if record == nil {
		c.logf(batchID, "warn", "No speaker data for %s, deferring for operator input", file)
		outcome.Kind = domain.OutcomeDeferred
		outcome.Reason = reasonMissingMetadata
		return c.publishOutcome(batchID, outcome)
	}

	job := domain.SpeakerJob{
		GLLFile:     file,
		SpeakerName: record.SpeakerName,
	}
	if len(record.ConfigFiles) > 0 {
		job.ConfigFile = record.ConfigFiles[0]
	}
	outcome.Job = job

	if record.Skip {
		c.logf(batchID, "info", "Skipping %s (%s): marked skip", record.SpeakerName, file)
		outcome.Kind = domain.OutcomeSkipped
		outcome.Reason = "marked skip"
		return c.publishOutcome(batchID, outcome)
	}

	// Finished jobs never consume the session lock: opening the vendor
	// application is expensive and failure-prone.
	if c.oracle.JobDone(job.SpeakerName, job.ConfigFile) {
		c.logf(batchID, "debug", "Processing done for %s!", record.SpeakerName)
		outcome.Kind = domain.OutcomeSuccess
		return c.publishOutcome(batchID, outcome)
	}

	if !c.session.TryLock() {
		c.logf(batchID, "warn", "Vendor application busy, deferring %s", record.SpeakerName)
		outcome.Kind = domain.OutcomeDeferred
		outcome.Reason = reasonSessionBusy
		return c.publishOutcome(batchID, outcome)
	}
	defer c.session.Unlock()

	c.logf(batchID, "info", "Processing: %s / %s", record.SpeakerName, file)
	if err := c.extractor.Extract(ctx, job); err != nil {
		c.logf(batchID, "error", "Failed %s: %v", record.SpeakerName, err)
		outcome.Kind = domain.OutcomeFailed
		outcome.Reason = err.Error()
		return c.publishOutcome(batchID, outcome)
	}

	c.logf(batchID, "info", "Processed: %s", file)
	outcome.Kind = domain.OutcomeSuccess
	return c.publishOutcome(batchID, outcome)
}

// scan lists GLL files under root, case-insensitive on extension, skipping
// directories named with the double-underscore ignore convention, and
// de-duplicating paths that differ only by separator.
func (c *Coordinator) scan(root string) ([]string, error) {
	seen := map[string]string{}
	err := c.walkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "__") || strings.HasSuffix(name, "__")) {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".gll") {
			return nil
		}

		key := strings.ReplaceAll(path, `\`, "/")
		if _, dup := seen[key]; !dup {
			seen[key] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(seen))
	for _, path := range seen {
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// publishOutcome emits the per-job outcome event.
func (c *Coordinator) publishOutcome(batchID string, outcome domain.ProcessingOutcome) domain.ProcessingOutcome {
	c.events.Publish(Event{
		BatchID:     batchID,
		Type:        EventTypeOutcome,
		GLLFile:     outcome.Job.GLLFile,
		SpeakerName: outcome.Job.SpeakerName,
		Outcome:     outcome.Kind,
		Message:     outcome.Reason,
	})
	return outcome
}

// complete emits the final batch event.
func (c *Coordinator) complete(batchID string, result *domain.BatchResult) {
	if len(result.MissingMetadata) > 0 {
		c.logf(batchID, "warn", "%d GLL files are missing speaker data", len(result.MissingMetadata))
	} else if result.OK {
		c.logf(batchID, "info", "Batch processing complete.")
	}
	c.events.Publish(Event{
		BatchID: batchID,
		Type:    EventTypeComplete,
		OK:      result.OK,
	})
}

// logf publishes a leveled log event and mirrors it to the logger.
func (c *Coordinator) logf(batchID, level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case "debug":
		c.log.Debug(msg)
	case "warn":
		c.log.Warn(msg)
	case "error":
		c.log.Error(msg)
	default:
		c.log.Info(msg)
	}
	c.events.Publish(Event{
		BatchID: batchID,
		Type:    EventTypeLog,
		Level:   level,
		Message: msg,
	})
}
