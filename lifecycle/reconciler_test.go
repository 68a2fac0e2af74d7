package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"zkpay-sdk/config"
	"zkpay-sdk/models"
)

// fakeBackend serves scripted status sequences; the final entry repeats.
type fakeBackend struct {
	checkbookStatuses []models.CheckbookStatus
	checkbookCalls    int

	allocationStatuses []models.AllocationStatus
	allocationCalls    int

	withdrawStatuses []models.WithdrawRequestStatus
	withdrawCalls    int

	failFirst int // fail this many initial calls with a transport error
}

func (f *fakeBackend) take(calls *int, n int) (int, error) {
	i := *calls
	*calls++
	if i < f.failFirst {
		return 0, fmt.Errorf("connection refused")
	}
	idx := i - f.failFirst
	if idx >= n {
		idx = n - 1
	}
	return idx, nil
}

func (f *fakeBackend) GetCheckbook(ctx context.Context, id string) (*models.Checkbook, error) {
	idx, err := f.take(&f.checkbookCalls, len(f.checkbookStatuses))
	if err != nil {
		return nil, err
	}
	return &models.Checkbook{ID: id, Status: f.checkbookStatuses[idx]}, nil
}

func (f *fakeBackend) GetAllocation(ctx context.Context, id string) (*models.Allocation, error) {
	idx, err := f.take(&f.allocationCalls, len(f.allocationStatuses))
	if err != nil {
		return nil, err
	}
	return &models.Allocation{ID: id, Status: f.allocationStatuses[idx]}, nil
}

func (f *fakeBackend) GetWithdrawRequest(ctx context.Context, id string) (*models.WithdrawRequest, error) {
	idx, err := f.take(&f.withdrawCalls, len(f.withdrawStatuses))
	if err != nil {
		return nil, err
	}
	return &models.WithdrawRequest{ID: id, Status: f.withdrawStatuses[idx], ExecuteError: "rpc error"}, nil
}

func newTestReconciler(backend Backend, clock Clock) *Reconciler {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := &config.Config{}
	return NewReconciler(backend, cfg, log).WithClock(clock)
}

// drive advances the fake clock until the wait goroutine finishes.
func drive(t *testing.T, clock *FakeClock, done <-chan error) error {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		case <-deadline:
			t.Fatal("wait did not finish")
		default:
			clock.Advance(2 * time.Second)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestWaitForCheckbookStatusReachesTarget(t *testing.T) {
	backend := &fakeBackend{
		checkbookStatuses: []models.CheckbookStatus{
			models.CheckbookStatusPending,
			models.CheckbookStatusUnsigned,
			models.CheckbookStatusReadyForCommitment,
		},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	done := make(chan error, 1)
	go func() {
		_, err := r.WaitForCheckbookStatus(context.Background(), "cb-1", time.Minute, models.CheckbookStatusReadyForCommitment)
		done <- err
	}()
	if err := drive(t, clock, done); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if backend.checkbookCalls < 3 {
		t.Errorf("backend polled %d times, want >= 3", backend.checkbookCalls)
	}
}

func TestWaitForCheckbookTerminalFailsImmediately(t *testing.T) {
	backend := &fakeBackend{
		checkbookStatuses: []models.CheckbookStatus{models.CheckbookStatusDeleted},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	// The first poll sees DELETED, so nothing needs to drive the clock.
	_, err := r.WaitForCheckbookStatus(context.Background(), "cb-1", time.Hour, models.CheckbookStatusWithCheckbook)
	var terminal *TerminalStateError
	if !errors.As(err, &terminal) {
		t.Fatalf("err = %v, want TerminalStateError", err)
	}
	if terminal.Status != string(models.CheckbookStatusDeleted) {
		t.Errorf("terminal status = %q, want DELETED", terminal.Status)
	}
	if backend.checkbookCalls != 1 {
		t.Errorf("backend polled %d times, want exactly 1", backend.checkbookCalls)
	}
}

func TestWaitForCheckbookFailureStateFailsImmediately(t *testing.T) {
	for _, status := range []models.CheckbookStatus{
		models.CheckbookStatusProofFailed,
		models.CheckbookStatusSubmissionFailed,
	} {
		t.Run(string(status), func(t *testing.T) {
			backend := &fakeBackend{
				checkbookStatuses: []models.CheckbookStatus{status},
			}
			clock := NewFakeClock(time.Unix(0, 0))
			r := newTestReconciler(backend, clock)

			_, err := r.WaitForCheckbookStatus(context.Background(), "cb-1", time.Hour, models.CheckbookStatusWithCheckbook)
			var terminal *TerminalStateError
			if !errors.As(err, &terminal) {
				t.Fatalf("err = %v, want TerminalStateError", err)
			}
			if terminal.Status != string(status) {
				t.Errorf("terminal status = %q, want %q", terminal.Status, status)
			}
			if backend.checkbookCalls != 1 {
				t.Errorf("backend polled %d times, want exactly 1", backend.checkbookCalls)
			}
		})
	}
}

func TestWaitForCheckbookFailureStateAsTarget(t *testing.T) {
	// A failure state named as a target ends the wait normally so the caller
	// can move on to an explicit retry.
	backend := &fakeBackend{
		checkbookStatuses: []models.CheckbookStatus{models.CheckbookStatusProofFailed},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	cb, err := r.WaitForCheckbookStatus(context.Background(), "cb-1", time.Hour, models.CheckbookStatusProofFailed)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if cb.Status != models.CheckbookStatusProofFailed {
		t.Errorf("status = %s, want proof_failed", cb.Status)
	}
}

func TestWaitForCheckbookMultipleTargets(t *testing.T) {
	backend := &fakeBackend{
		checkbookStatuses: []models.CheckbookStatus{
			models.CheckbookStatusPending,
			models.CheckbookStatusReadyForCommitment,
		},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	done := make(chan error, 1)
	var got models.CheckbookStatus
	go func() {
		cb, err := r.WaitForCheckbookStatus(context.Background(), "cb-1", time.Minute,
			models.CheckbookStatusReadyForCommitment, models.CheckbookStatusWithCheckbook)
		if cb != nil {
			got = cb.Status
		}
		done <- err
	}()
	if err := drive(t, clock, done); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if got != models.CheckbookStatusReadyForCommitment {
		t.Errorf("status = %s, want ready_for_commitment", got)
	}
}

func TestWaitRequiresTargets(t *testing.T) {
	backend := &fakeBackend{}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	if _, err := r.WaitForCheckbookStatus(context.Background(), "cb-1", time.Minute); !errors.Is(err, ErrNoTargetStatuses) {
		t.Errorf("checkbook: err = %v, want ErrNoTargetStatuses", err)
	}
	if _, err := r.WaitForAllocationStatus(context.Background(), "a-1", time.Minute); !errors.Is(err, ErrNoTargetStatuses) {
		t.Errorf("allocation: err = %v, want ErrNoTargetStatuses", err)
	}
}

func TestWaitTimeoutCarriesLastStatus(t *testing.T) {
	backend := &fakeBackend{
		checkbookStatuses: []models.CheckbookStatus{models.CheckbookStatusGeneratingProof},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	// Budget below one interval: the first poll happens, then the deadline.
	_, err := r.WaitForCheckbookStatus(context.Background(), "cb-1", time.Second, models.CheckbookStatusWithCheckbook)
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
	if timeout.LastStatus != string(models.CheckbookStatusGeneratingProof) {
		t.Errorf("last status = %q, want generating_proof", timeout.LastStatus)
	}
}

func TestWaitSurvivesTransientErrors(t *testing.T) {
	backend := &fakeBackend{
		failFirst:         2,
		checkbookStatuses: []models.CheckbookStatus{models.CheckbookStatusWithCheckbook},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	done := make(chan error, 1)
	go func() {
		cb, err := r.WaitForCheckbookStatus(context.Background(), "cb-1", time.Minute, models.CheckbookStatusWithCheckbook)
		if err == nil && cb.Status != models.CheckbookStatusWithCheckbook {
			err = fmt.Errorf("unexpected status %s", cb.Status)
		}
		done <- err
	}()
	if err := drive(t, clock, done); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
}

func TestWaitCancelled(t *testing.T) {
	backend := &fakeBackend{
		checkbookStatuses: []models.CheckbookStatus{models.CheckbookStatusPending},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.WaitForCheckbookStatus(ctx, "cb-1", time.Hour, models.CheckbookStatusWithCheckbook)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not stop the wait")
	}
}

func TestWaitForAllocationUsedIsTerminal(t *testing.T) {
	backend := &fakeBackend{
		allocationStatuses: []models.AllocationStatus{models.AllocationStatusUsed},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	_, err := r.WaitForAllocationStatus(context.Background(), "a-1", time.Hour, models.AllocationStatusIdle)
	var terminal *TerminalStateError
	if !errors.As(err, &terminal) {
		t.Fatalf("err = %v, want TerminalStateError", err)
	}
}

func TestWaitForAllocationReachesIdle(t *testing.T) {
	backend := &fakeBackend{
		allocationStatuses: []models.AllocationStatus{
			models.AllocationStatusPending,
			models.AllocationStatusIdle,
		},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	done := make(chan error, 1)
	go func() {
		_, err := r.WaitForAllocationStatus(context.Background(), "a-1", time.Minute, models.AllocationStatusIdle)
		done <- err
	}()
	if err := drive(t, clock, done); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
}

func TestWaitForWithdrawCompletion(t *testing.T) {
	backend := &fakeBackend{
		withdrawStatuses: []models.WithdrawRequestStatus{
			models.WithdrawStatusProving,
			models.WithdrawStatusSubmitted,
			models.WithdrawStatusCompleted,
		},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	done := make(chan error, 1)
	go func() {
		_, err := r.WaitForWithdrawCompletion(context.Background(), "w-1", time.Hour)
		done <- err
	}()
	if err := drive(t, clock, done); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
}

func TestWaitForWithdrawTerminalCarriesDetail(t *testing.T) {
	backend := &fakeBackend{
		withdrawStatuses: []models.WithdrawRequestStatus{models.WithdrawStatusSubmitFailed},
	}
	clock := NewFakeClock(time.Unix(0, 0))
	r := newTestReconciler(backend, clock)

	_, err := r.WaitForWithdrawCompletion(context.Background(), "w-1", time.Hour)
	var terminal *TerminalStateError
	if !errors.As(err, &terminal) {
		t.Fatalf("err = %v, want TerminalStateError", err)
	}
	if terminal.Detail != "rpc error" {
		t.Errorf("detail = %q, want backend error text", terminal.Detail)
	}
}
