package clients

import (
	"context"
	"strings"
	"testing"

	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"

	"zkpay-sdk/backendtest"
	"zkpay-sdk/config"
	"zkpay-sdk/models"
	"zkpay-sdk/types"
)

const (
	testAuthSecret = "test-auth-secret"
	testTOTPSecret = "JBSWY3DPEHPK3PXP"
)

func newTestClient(t *testing.T) (*BackendClient, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New(
		backendtest.WithAuthSecret(testAuthSecret),
		backendtest.WithTOTPCheck(func(code string) bool {
			return totp.Validate(code, testTOTPSecret)
		}),
	)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Backend.BaseURL = srv.URL()
	cfg.Backend.AuthSecret = testAuthSecret
	cfg.Backend.AuthSubject = "test"
	cfg.Backend.TOTPSecret = testTOTPSecret

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewBackendClient(cfg, log), srv
}

func TestGetCheckbook(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddCheckbook(&models.Checkbook{
		ID:             "cb-1",
		LocalDepositID: 1234,
		SLIP44ChainID:  714,
		Status:         models.CheckbookStatusReadyForCommitment,
	})

	cb, err := client.GetCheckbook(context.Background(), "cb-1")
	if err != nil {
		t.Fatal(err)
	}
	if cb.LocalDepositID != 1234 || cb.Status != models.CheckbookStatusReadyForCommitment {
		t.Errorf("unexpected checkbook: %+v", cb)
	}

	if _, err := client.GetCheckbook(context.Background(), "nope"); err == nil {
		t.Error("missing checkbook should fail")
	} else if !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v, want 404 in message", err)
	}
}

func TestAuthRequired(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddCheckbook(&models.Checkbook{ID: "cb-1"})

	// Wrong secret: the server rejects the bearer token.
	client.authSecret = "wrong"
	if _, err := client.GetCheckbook(context.Background(), "cb-1"); err == nil {
		t.Error("bad token should fail")
	} else if !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want 401 in message", err)
	}
}

func TestSubmitCommitment(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddCheckbook(&models.Checkbook{
		ID:             "cb-1",
		LocalDepositID: 1234,
		Status:         models.CheckbookStatusReadyForCommitment,
	})

	req := &types.CommitmentSubmitRequest{
		Allocations: []types.CommitmentAllocationRequest{
			{RecipientChainID: 714, RecipientAddress: "0x" + strings.Repeat("11", 32), Amount: "1000"},
		},
		DepositID: "1234",
		Signature: types.MultichainSignatureRequest{ChainID: 714, SignatureData: "0xsig"},
	}
	cb, err := client.SubmitCommitment(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if cb.Status != models.CheckbookStatusGeneratingProof {
		t.Errorf("status after submit = %s, want generating_proof", cb.Status)
	}
	if got := srv.LastCommitment(); got == nil || got.DepositID != "1234" {
		t.Errorf("server recorded %+v", got)
	}
}

func TestSubmitWithdraw(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddAllocation(&models.Allocation{ID: "a-1", Status: models.AllocationStatusIdle})

	req := &types.WithdrawSubmitRequest{
		Allocations: []string{"a-1"},
		Intent: types.WithdrawIntentRequest{
			Type:               0,
			BeneficiaryChainID: 60,
			BeneficiaryAddress: "0x" + strings.Repeat("22", 32),
			TokenSymbol:        "USDT",
		},
		Signature: types.MultichainSignatureRequest{ChainID: 714, SignatureData: "0xsig"},
		ChainID:   714,
	}
	w, err := client.SubmitWithdraw(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if w.Status != models.WithdrawStatusCreated {
		t.Errorf("status = %s, want created", w.Status)
	}

	// Submission consumes the allocation.
	a, err := client.GetAllocation(context.Background(), "a-1")
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != models.AllocationStatusUsed {
		t.Errorf("allocation status = %s, want used", a.Status)
	}
	if a.WithdrawRequestID == nil || *a.WithdrawRequestID != w.ID {
		t.Error("allocation not linked to the withdraw request")
	}
}

func TestRetryCheckbook(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddCheckbook(&models.Checkbook{ID: "cb-fail", Status: models.CheckbookStatusProofFailed})
	srv.AddCheckbook(&models.Checkbook{ID: "cb-ok", Status: models.CheckbookStatusWithCheckbook})

	if err := client.RetryCheckbook(context.Background(), "cb-fail"); err != nil {
		t.Fatalf("retry on proof_failed: %v", err)
	}
	cb, err := client.GetCheckbook(context.Background(), "cb-fail")
	if err != nil {
		t.Fatal(err)
	}
	if cb.Status != models.CheckbookStatusGeneratingProof {
		t.Errorf("status after retry = %s", cb.Status)
	}

	// Healthy checkbooks are not retryable.
	if err := client.RetryCheckbook(context.Background(), "cb-ok"); err == nil {
		t.Error("retry on with_checkbook should fail")
	}
}

func TestRetryWithdrawOps(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddWithdrawRequest(&models.WithdrawRequest{
		ID:            "w-1",
		Status:        models.WithdrawStatusSubmitFailed,
		ExecuteStatus: models.ExecuteStatusSubmitFailed,
	})

	if err := client.RetryWithdraw(context.Background(), "w-1", "retry"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if err := client.RetryWithdraw(context.Background(), "w-1", "bad-op"); err == nil {
		t.Error("unknown op should fail before hitting the server")
	}
}

func TestRetryRequiresTOTP(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddCheckbook(&models.Checkbook{ID: "cb-fail", Status: models.CheckbookStatusProofFailed})

	client.totpSecret = ""
	if err := client.RetryCheckbook(context.Background(), "cb-fail"); err == nil {
		t.Error("retry without TOTP secret should fail")
	}
}

func TestHealth(t *testing.T) {
	client, _ := newTestClient(t)
	if err := client.Health(context.Background()); err != nil {
		t.Fatal(err)
	}
}
