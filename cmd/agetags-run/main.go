// Package main runs the age-tag task once and prints its summary.
//
// It accepts the same flags and environment as the server; -enable-write
// decides whether tags are written or only planned.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/samber/do/v2"

	"github.com/listenupapp/agetags-server/internal/di"
	"github.com/listenupapp/agetags-server/internal/domain"
	"github.com/listenupapp/agetags-server/internal/logger"
	"github.com/listenupapp/agetags-server/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		return 1
	}

	log := do.MustInvoke[*logger.Logger](injector)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Error("Shutdown error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := do.MustInvoke[*service.AgeTagService](injector)

	var lastStep atomic.Int64
	lastStep.Store(-1)
	tagRun, err := svc.Run(ctx, service.RunOptions{
		TriggerID: uuid.NewString(),
		Progress: func(percent float64) {
			// Report in 10% steps.
			step := int64(percent) / 10
			for {
				last := lastStep.Load()
				if step <= last {
					return
				}
				if lastStep.CompareAndSwap(last, step) {
					log.Info("Age-tag progress", "percent", step*10)
					return
				}
			}
		},
	})
	if tagRun != nil {
		printSummary(os.Stdout, tagRun)
	}
	if err != nil {
		log.Error("Age-tag run failed", "error", err)
		return 1
	}

	log.WithRun(tagRun.ID, tagRun.DryRun).Info("Age-tag run finished",
		"changed", tagRun.Changed,
		"failed", tagRun.Failed,
	)
	return 0
}

func printSummary(w io.Writer, r *domain.TagRun) {
	mode := "write"
	if r.DryRun {
		mode = "dry-run"
	}

	fmt.Fprintf(w, "Run %s (%s): %s\n", r.ID, mode, r.Status)
	if r.Error != "" {
		fmt.Fprintf(w, "  error:    %s\n", r.Error)
	}
	fmt.Fprintf(w, "  scanned:  %d\n", r.Scanned)
	fmt.Fprintf(w, "  resolved: %d\n", r.Resolved)
	fmt.Fprintf(w, "  unknown:  %d\n", r.Unknown)
	fmt.Fprintf(w, "  changed:  %d\n", r.Changed)
	fmt.Fprintf(w, "  failed:   %d\n", r.Failed)

	for _, c := range r.Changes {
		target := c.NewTag
		if c.Action == domain.TagActionRemove {
			target = "(none)"
		}
		fmt.Fprintf(w, "  %-6s %-40s %v -> %s\n", c.Action, c.TitleName, c.OldTags, target)
	}
}
