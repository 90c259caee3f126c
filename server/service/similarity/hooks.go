package similarity

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wishfactory/wishfactory/store"
)

// batchConcurrency bounds parallel precomputation of a batch create.
const batchConcurrency = 4

// Hooks is the trigger surface the CRUD layer fires after wish writes.
// Every entry point spawns its work in the background and swallows
// errors: the triggering write has already succeeded and must never be
// delayed or rolled back by a similarity-side failure.
type Hooks struct {
	precompute *PrecomputeService

	wg sync.WaitGroup
}

// NewHooks creates the lifecycle hook surface.
func NewHooks(precompute *PrecomputeService) *Hooks {
	return &Hooks{precompute: precompute}
}

// Wait blocks until every spawned background task has finished. Used
// by graceful shutdown and tests; callers on the write path never wait.
func (h *Hooks) Wait() {
	h.wg.Wait()
}

// WishCreated precomputes similarity scores for a freshly created wish.
func (h *Hooks) WishCreated(ctx context.Context, wish *store.Wish) {
	h.spawn(ctx, "created", func(ctx context.Context) error {
		_, err := h.precompute.PrecomputeForWish(ctx, wish, false)
		return err
	})
}

// WishUpdated invalidates the stale cached scores of an edited wish and
// recomputes them against the updated text.
func (h *Hooks) WishUpdated(ctx context.Context, wishID int32, updated *store.Wish) {
	h.spawn(ctx, "updated", func(ctx context.Context) error {
		if err := h.precompute.Invalidate(ctx, wishID); err != nil {
			return err
		}
		_, err := h.precompute.PrecomputeForWish(ctx, updated, false)
		return err
	})
}

// WishDeleted removes every cached score referencing the deleted wish.
func (h *Hooks) WishDeleted(ctx context.Context, wishID int32) {
	h.spawn(ctx, "deleted", func(ctx context.Context) error {
		return h.precompute.Invalidate(ctx, wishID)
	})
}

// WishesBatchCreated precomputes scores for a batch of created wishes
// in parallel. One failing wish does not stop the others.
func (h *Hooks) WishesBatchCreated(ctx context.Context, wishes []*store.Wish) {
	h.spawn(ctx, "batch_created", func(ctx context.Context) error {
		group, ctx := errgroup.WithContext(ctx)
		group.SetLimit(batchConcurrency)
		for _, wish := range wishes {
			wish := wish
			group.Go(func() error {
				if _, err := h.precompute.PrecomputeForWish(ctx, wish, false); err != nil {
					// All-settled: log per wish, never propagate, so
					// the remaining wishes keep processing.
					slog.Warn("batch precomputation failed for wish", "wish_id", wish.ID, "error", err)
				}
				return nil
			})
		}
		return group.Wait()
	})
}

// WishStatusChanged reacts to a lifecycle transition: cached scores are
// invalidated when the wish moves into or out of the archived state,
// and recomputed only when the new status keeps it comparison-eligible.
func (h *Hooks) WishStatusChanged(ctx context.Context, wishID int32, oldStatus, newStatus store.Status) {
	if oldStatus.ComparisonEligible() == newStatus.ComparisonEligible() {
		return
	}
	h.spawn(ctx, "status_changed", func(ctx context.Context) error {
		if err := h.precompute.Invalidate(ctx, wishID); err != nil {
			return err
		}
		if !newStatus.ComparisonEligible() {
			return nil
		}
		wish, err := h.precompute.store.GetWish(ctx, &store.FindWish{ID: &wishID})
		if err != nil {
			return err
		}
		if wish == nil {
			return nil
		}
		_, err = h.precompute.PrecomputeForWish(ctx, wish, false)
		return err
	})
}

// spawn runs fn detached from the caller: the task is not cancelled
// when the triggering request finishes, panics are contained, and
// failures are logged and discarded.
func (h *Hooks) spawn(ctx context.Context, event string, fn func(context.Context) error) {
	background := context.WithoutCancel(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("similarity hook panicked", "event", event, "panic", r)
			}
		}()
		if err := fn(background); err != nil {
			slog.Warn("similarity hook failed", "event", event, "error", err)
		}
	}()
}
