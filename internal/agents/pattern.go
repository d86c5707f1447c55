package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crashlens/crashlens-core/internal/judge"
	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/internal/monitoring"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

// PatternDetector watches the incident flow for clusters of similar crashes.
// It consumes the same incidents stream as triage through its own group,
// keeps a sliding window of recent incidents, and periodically checks the
// window for groups that crossed the threshold.
type PatternDetector struct {
	window   *Window
	judge    judge.Provider
	store    PatternStore
	client   streams.Client
	notify   Notifier
	logger   logger.Logger
	interval time.Duration
}

func NewPatternDetector(window *Window, interval time.Duration, j judge.Provider, store PatternStore, client streams.Client, notify Notifier, log logger.Logger) *PatternDetector {
	return &PatternDetector{
		window:   window,
		judge:    j,
		store:    store,
		client:   client,
		notify:   notify,
		logger:   log,
		interval: interval,
	}
}

// Handle is the stage handler for the incidents stream: it admits the
// incident to the window. Admission is in-memory and cannot fail, so every
// well-formed message is acknowledged immediately.
func (d *PatternDetector) Handle(ctx context.Context, msg streams.Message) error {
	inc, err := streams.ParseIncident(msg)
	if err != nil {
		d.logger.Warn("Dropping malformed incident", "message_id", msg.ID, "error", err)
		return nil
	}
	d.window.Add(inc)
	return nil
}

// Run checks the window on a fixed interval until ctx is cancelled.
func (d *PatternDetector) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Check(ctx)
		}
	}
}

// Check partitions the window and reports every triggering group. A failure
// reporting one group leaves that group's incidents in the window, so the
// next tick retries it; other groups are unaffected.
func (d *PatternDetector) Check(ctx context.Context) {
	for _, g := range d.window.Groups() {
		if err := d.report(ctx, g); err != nil {
			d.logger.Error("Pattern report failed, group retained",
				"key", g.Key, "size", len(g.Incidents), "error", err)
			continue
		}
		d.window.RemoveGroup(g)
	}
}

func (d *PatternDetector) report(ctx context.Context, g Group) error {
	d.notify.Notice(AgentPattern, fmt.Sprintf("Detected %d similar incidents, analyzing pattern", len(g.Incidents)))

	analysis := d.judge.AnalyzePattern(ctx, g.Incidents)
	pattern := models.Pattern{
		PatternID:         "pat_" + uuid.NewString(),
		PatternType:       analysis.PatternType,
		AffectedEndpoints: analysis.AffectedEndpoints,
		Frequency:         len(g.Incidents),
		FirstSeen:         g.FirstSeen,
		LastSeen:          g.LastSeen,
		DetectedBy:        AgentPattern,
		LikelyRootCause:   analysis.LikelyRootCause,
	}

	if _, err := d.store.CreatePattern(ctx, &pattern); err != nil {
		return fmt.Errorf("persisting pattern %s: %w", pattern.PatternID, err)
	}
	if _, err := d.client.Append(ctx, streams.StreamPatternDetected, streams.PatternValues(pattern)); err != nil {
		return fmt.Errorf("emitting pattern %s: %w", pattern.PatternID, err)
	}

	monitoring.RecordPatternDetected()
	d.notify.Notice(AgentPattern, fmt.Sprintf("Pattern %s: %s (%d occurrences)", pattern.PatternID, pattern.PatternType, pattern.Frequency))
	d.logger.Info("Pattern detected",
		"pattern_id", pattern.PatternID, "type", pattern.PatternType,
		"frequency", pattern.Frequency, "endpoints", pattern.AffectedEndpoints)
	return nil
}
