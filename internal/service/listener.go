// Package service runs the tool as a long-lived worker that builds
// dependency packages on demand.
//
// The listener polls the server's event queue: a "dependencies.start_create"
// event for its platform becomes a build job, whose progress and outcome are
// reported back as event updates. Build failures fail the job but never the
// listener.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/Asgard118/ayon-dependencies-tool/internal/bundle"
	"github.com/Asgard118/ayon-dependencies-tool/internal/registry"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 10 * time.Second

// Builder runs one dependency package build. Implemented by bundle.Engine.
type Builder interface {
	Build(ctx context.Context, req bundle.BuildRequest) (*bundle.BuildResult, error)
}

// Listener polls for build jobs and executes them.
type Listener struct {
	Client  registry.Client
	Builder Builder

	// Platform is the platform this worker builds for; it only claims
	// jobs from the matching topic.
	Platform string

	// Sender identifies this worker in claimed events.
	Sender string

	// Interval is the polling period. Zero means DefaultInterval.
	Interval time.Duration
}

func (l *Listener) sourceTopic() string {
	return "dependencies.start_create." + l.Platform
}

func (l *Listener) targetTopic() string {
	return "dependencies.creating_package." + l.Platform
}

// Run polls until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	log := clog.FromContext(ctx).With("platform", l.Platform)
	log.Info("listening for build jobs", "topic", l.sourceTopic(), "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := l.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("poll failed", "error", err)
		}

		select {
		case <-ctx.Done():
			log.Info("listener shutting down")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll claims at most one job and runs it to completion.
func (l *Listener) poll(ctx context.Context) error {
	event, err := l.Client.EnrollEventJob(ctx, l.sourceTopic(), l.targetTopic(), l.Sender)
	if errors.Is(err, registry.ErrNoEvent) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enroll job: %w", err)
	}

	log := clog.FromContext(ctx).With("event", event.ID, "bundle", event.BundleName())
	log.Info("claimed build job")

	bundleName := event.BundleName()
	if bundleName == "" {
		return l.failEvent(ctx, event.ID, "event carries no bundle name")
	}

	if err := l.Client.UpdateEvent(ctx, event.ID, registry.EventUpdate{
		Status:      registry.EventInProgress,
		Description: fmt.Sprintf("building dependency package for %s", bundleName),
	}); err != nil {
		return fmt.Errorf("mark event in progress: %w", err)
	}

	result, err := l.Builder.Build(ctx, bundle.BuildRequest{
		Bundle:   bundleName,
		Platform: l.Platform,
	})
	if err != nil {
		log.Error("build failed", "error", err)
		return l.failEvent(ctx, event.ID, err.Error())
	}

	update := registry.EventUpdate{
		Status:  registry.EventFinished,
		Payload: map[string]any{"reused": result.Reused},
	}
	if result.Package != nil {
		update.Description = fmt.Sprintf("created %s", result.Package.Filename)
		update.Payload["filename"] = result.Package.Filename
	} else {
		update.Description = "existing dependency package still applicable"
	}
	if err := l.Client.UpdateEvent(ctx, event.ID, update); err != nil {
		return fmt.Errorf("mark event finished: %w", err)
	}
	log.Info("build job finished", "reused", result.Reused)
	return nil
}

func (l *Listener) failEvent(ctx context.Context, id, description string) error {
	if err := l.Client.UpdateEvent(ctx, id, registry.EventUpdate{
		Status:      registry.EventFailed,
		Description: description,
	}); err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	return nil
}
