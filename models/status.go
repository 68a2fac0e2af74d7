package models

// CheckbookStatus is the backend-owned lifecycle status of a checkbook. The
// client only observes it.
type CheckbookStatus string

const (
	CheckbookStatusPending              CheckbookStatus = "pending"               // deposit submitted, processing
	CheckbookStatusUnsigned             CheckbookStatus = "unsigned"              // deposit confirmed, no signature yet
	CheckbookStatusReadyForCommitment   CheckbookStatus = "ready_for_commitment"  // allocations can be committed
	CheckbookStatusGeneratingProof      CheckbookStatus = "generating_proof"      // backend generating commitment proof
	CheckbookStatusSubmittingCommitment CheckbookStatus = "submitting_commitment" // commitment TX being submitted
	CheckbookStatusCommitmentPending    CheckbookStatus = "commitment_pending"    // waiting for on-chain confirmation
	CheckbookStatusWithCheckbook        CheckbookStatus = "with_checkbook"        // commitment confirmed, allocations spendable

	// Failure states. proof_failed and submission_failed permit creating new
	// allocations and resubmitting a commitment; DELETED is unusable.
	CheckbookStatusProofFailed      CheckbookStatus = "proof_failed"
	CheckbookStatusSubmissionFailed CheckbookStatus = "submission_failed"
	CheckbookStatusDeleted          CheckbookStatus = "DELETED"
)

// IsRetryable reports whether a failed checkbook can be driven back to
// with_checkbook by creating new allocations and resubmitting.
func (s CheckbookStatus) IsRetryable() bool {
	return s == CheckbookStatusProofFailed || s == CheckbookStatusSubmissionFailed
}

// IsTerminalFailure reports whether the status ends a wait. The backend
// never moves proof_failed or submission_failed forward on its own; only the
// explicit retry operations can. DELETED is unrecoverable.
func (s CheckbookStatus) IsTerminalFailure() bool {
	return s == CheckbookStatusProofFailed ||
		s == CheckbookStatusSubmissionFailed ||
		s == CheckbookStatusDeleted
}

// AllocationStatus is the lifecycle status of a single allocation.
type AllocationStatus string

const (
	AllocationStatusPending AllocationStatus = "pending" // created at commitment submission
	AllocationStatusIdle    AllocationStatus = "idle"    // commitment confirmed, spendable
	AllocationStatusUsed    AllocationStatus = "used"    // consumed by a withdraw request (terminal)
)

// WithdrawRequestStatus is the main status of a withdraw request, computed
// by the backend from the proof/execute sub-statuses.
type WithdrawRequestStatus string

const (
	WithdrawStatusCreated        WithdrawRequestStatus = "created"
	WithdrawStatusProving        WithdrawRequestStatus = "proving"
	WithdrawStatusProofGenerated WithdrawRequestStatus = "proof_generated"
	WithdrawStatusProofFailed    WithdrawRequestStatus = "proof_failed"

	WithdrawStatusSubmitting       WithdrawRequestStatus = "submitting"
	WithdrawStatusSubmitted        WithdrawRequestStatus = "submitted"
	WithdrawStatusExecuteConfirmed WithdrawRequestStatus = "execute_confirmed"
	WithdrawStatusSubmitFailed     WithdrawRequestStatus = "submit_failed"

	WithdrawStatusCompleted WithdrawRequestStatus = "completed"

	WithdrawStatusFailedPermanent WithdrawRequestStatus = "failed_permanent"
	WithdrawStatusCancelled       WithdrawRequestStatus = "cancelled"
)

// IsTerminalFailure reports whether the status is a permanent failure that
// no amount of waiting will change. proof_failed and submit_failed are
// terminal for a wait but may be resubmitted through the explicit retry
// operations.
func (s WithdrawRequestStatus) IsTerminalFailure() bool {
	switch s {
	case WithdrawStatusProofFailed, WithdrawStatusSubmitFailed,
		WithdrawStatusFailedPermanent, WithdrawStatusCancelled:
		return true
	default:
		return false
	}
}

// ProofStatus is the proof-generation sub-status of a withdraw request.
type ProofStatus string

const (
	ProofStatusPending    ProofStatus = "pending"
	ProofStatusInProgress ProofStatus = "in_progress"
	ProofStatusCompleted  ProofStatus = "completed"
	ProofStatusFailed     ProofStatus = "failed"
)

// ExecuteStatus is the on-chain execution sub-status of a withdraw request.
type ExecuteStatus string

const (
	ExecuteStatusPending      ExecuteStatus = "pending"
	ExecuteStatusSubmitted    ExecuteStatus = "submitted"
	ExecuteStatusSuccess      ExecuteStatus = "success"
	ExecuteStatusSubmitFailed ExecuteStatus = "submit_failed" // RPC/network error, retryable
	ExecuteStatusVerifyFailed ExecuteStatus = "verify_failed" // proof invalid or nullifier used, not retryable
)

// IntentType discriminates withdrawal intents on the wire.
type IntentType uint8

const (
	IntentTypeRawToken IntentType = 0 // redeem on the target chain to a plain address
	// Values above 0 are reserved for future intent kinds.
)

// LanguageCode selects the signature message template. The set is closed;
// the numeric values are part of the wire contract.
type LanguageCode uint8

const (
	LangZhCN LanguageCode = 0
	LangEn   LanguageCode = 1
)

// Valid reports whether the code is one of the supported languages.
func (l LanguageCode) Valid() bool {
	return l == LangZhCN || l == LangEn
}
