// Package lifecycle drives entities toward target states by polling the
// backend. All waits are bounded: they end at the target status, at a
// terminal failure, on context cancellation, or when the budget elapses.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"zkpay-sdk/config"
	"zkpay-sdk/metrics"
	"zkpay-sdk/models"
)

// Backend is the read surface the reconciler polls. *clients.BackendClient
// satisfies it.
type Backend interface {
	GetCheckbook(ctx context.Context, id string) (*models.Checkbook, error)
	GetAllocation(ctx context.Context, id string) (*models.Allocation, error)
	GetWithdrawRequest(ctx context.Context, id string) (*models.WithdrawRequest, error)
}

// Reconciler polls the backend until entities reach their targets. It never
// retries failed operations itself; terminal failures surface immediately as
// TerminalStateError and the caller chooses what to do.
type Reconciler struct {
	backend Backend
	clock   Clock
	log     *logrus.Entry

	checkbookInterval  time.Duration
	allocationInterval time.Duration
	withdrawInterval   time.Duration
}

// NewReconciler builds a reconciler with intervals from config.
func NewReconciler(backend Backend, cfg *config.Config, log *logrus.Logger) *Reconciler {
	return &Reconciler{
		backend:            backend,
		clock:              NewRealClock(),
		log:                log.WithField("component", "reconciler"),
		checkbookInterval:  cfg.CheckbookPollInterval(),
		allocationInterval: cfg.AllocationPollInterval(),
		withdrawInterval:   cfg.WithdrawPollInterval(),
	}
}

// WithClock swaps the clock. Tests inject a FakeClock here.
func (r *Reconciler) WithClock(clock Clock) *Reconciler {
	r.clock = clock
	return r
}

// WaitForCheckbookStatus polls until the checkbook reaches one of the target
// statuses. Any failure state (proof_failed, submission_failed, DELETED)
// that is not itself a target fails the wait immediately. Transient fetch
// errors are retried within the budget.
func (r *Reconciler) WaitForCheckbookStatus(ctx context.Context, id string, timeout time.Duration, targets ...models.CheckbookStatus) (*models.Checkbook, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargetStatuses
	}
	label := make([]string, len(targets))
	for i, t := range targets {
		label[i] = string(t)
	}
	var out *models.Checkbook
	err := r.poll(ctx, "checkbook", id, strings.Join(label, "|"), r.checkbookInterval, timeout, func(ctx context.Context) (string, bool, *TerminalStateError, error) {
		cb, err := r.backend.GetCheckbook(ctx, id)
		if err != nil {
			return "", false, nil, err
		}
		out = cb
		for _, target := range targets {
			if cb.Status == target {
				return string(cb.Status), true, nil, nil
			}
		}
		if cb.Status.IsTerminalFailure() {
			return string(cb.Status), false, &TerminalStateError{
				Entity: "checkbook", ID: id, Status: string(cb.Status),
			}, nil
		}
		return string(cb.Status), false, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WaitForAllocationStatus polls until the allocation reaches one of the
// target statuses. Allocations have no failure states, but used is terminal:
// a wait that does not include it cannot succeed once the allocation is
// spent.
func (r *Reconciler) WaitForAllocationStatus(ctx context.Context, id string, timeout time.Duration, targets ...models.AllocationStatus) (*models.Allocation, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargetStatuses
	}
	label := make([]string, len(targets))
	for i, t := range targets {
		label[i] = string(t)
	}
	var out *models.Allocation
	err := r.poll(ctx, "allocation", id, strings.Join(label, "|"), r.allocationInterval, timeout, func(ctx context.Context) (string, bool, *TerminalStateError, error) {
		alloc, err := r.backend.GetAllocation(ctx, id)
		if err != nil {
			return "", false, nil, err
		}
		out = alloc
		for _, target := range targets {
			if alloc.Status == target {
				return string(alloc.Status), true, nil, nil
			}
		}
		if alloc.Status == models.AllocationStatusUsed {
			return string(alloc.Status), false, &TerminalStateError{
				Entity: "allocation", ID: id, Status: string(alloc.Status),
			}, nil
		}
		return string(alloc.Status), false, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WaitForWithdrawCompletion polls until the withdraw request completes. Any
// terminal failure status (proof_failed, submit_failed, failed_permanent,
// cancelled) ends the wait immediately with the backend's error text.
func (r *Reconciler) WaitForWithdrawCompletion(ctx context.Context, id string, timeout time.Duration) (*models.WithdrawRequest, error) {
	var out *models.WithdrawRequest
	err := r.poll(ctx, "withdraw_request", id, string(models.WithdrawStatusCompleted), r.withdrawInterval, timeout, func(ctx context.Context) (string, bool, *TerminalStateError, error) {
		req, err := r.backend.GetWithdrawRequest(ctx, id)
		if err != nil {
			return "", false, nil, err
		}
		out = req
		if req.Status == models.WithdrawStatusCompleted {
			return string(req.Status), true, nil, nil
		}
		if req.Status.IsTerminalFailure() {
			detail := req.ProofError
			if detail == "" {
				detail = req.ExecuteError
			}
			return string(req.Status), false, &TerminalStateError{
				Entity: "withdraw_request", ID: id, Status: string(req.Status), Detail: detail,
			}, nil
		}
		return string(req.Status), false, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// poll runs one check immediately and then every interval until done,
// terminal, timeout or cancellation. check returns the observed status, a
// done flag, a terminal error, or a transient fetch error.
func (r *Reconciler) poll(ctx context.Context, entity, id, target string, interval, timeout time.Duration, check func(ctx context.Context) (string, bool, *TerminalStateError, error)) error {
	start := r.clock.Now()
	deadline := start.Add(timeout)
	lastStatus := ""

	entry := r.log.WithFields(logrus.Fields{
		"entity": entity,
		"id":     id,
		"target": target,
	})

	for {
		metrics.WaitPolls.WithLabelValues(entity).Inc()
		status, done, terminal, err := check(ctx)
		switch {
		case err != nil:
			// Transient: the backend may be briefly unreachable. Stay
			// within the budget.
			entry.WithError(err).Debug("poll failed")
		case terminal != nil:
			metrics.WaitTerminalFailures.WithLabelValues(entity, terminal.Status).Inc()
			entry.WithField("status", terminal.Status).Warn("wait ended by terminal state")
			return terminal
		case done:
			entry.WithField("status", status).Debug("wait satisfied")
			return nil
		}
		if status != "" {
			lastStatus = status
		}

		if !r.clock.Now().Add(interval).Before(deadline) {
			metrics.WaitTimeouts.WithLabelValues(entity).Inc()
			return &TimeoutError{
				Entity:     entity,
				ID:         id,
				Target:     target,
				LastStatus: lastStatus,
				Elapsed:    r.clock.Now().Sub(start),
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(interval):
		}
	}
}
