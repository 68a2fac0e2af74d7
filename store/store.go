// Package store is an optional local mirror of submitted operations. The
// backend remains the source of truth; the store only keeps what this client
// submitted, for offline inspection and reconciliation after restarts.
package store

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"zkpay-sdk/config"
)

// CommitmentRecord is one commitment submission made by this client.
type CommitmentRecord struct {
	ID        uint   `gorm:"primaryKey"`
	DepositID string `gorm:"size:66;index"` // bytes32 hex
	Checkbook string `gorm:"size:64;index"`

	OwnerAddress  string `gorm:"size:66"` // universal address hex
	SLIP44ChainID uint32
	TokenSymbol   string `gorm:"size:16"`

	AllocationCount int
	Nullifiers      pq.StringArray `gorm:"type:text[]"`
	MessageHash     string         `gorm:"size:66"`
	Signature       string         `gorm:"type:text"`

	CreatedAt time.Time
}

// WithdrawRecord is one withdraw submission made by this client.
type WithdrawRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RequestID string `gorm:"size:64;index"`

	AllocationIDs pq.StringArray `gorm:"type:text[]"`
	Amount        string         `gorm:"size:80"` // uint256 decimal string

	BeneficiaryChainID uint32
	BeneficiaryAddress string `gorm:"size:66"`
	TokenSymbol        string `gorm:"size:16"`

	Nullifier   string `gorm:"size:66"`
	MessageHash string `gorm:"size:66"`
	LastStatus  string `gorm:"size:32"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryStore persists submission records in Postgres.
type HistoryStore struct {
	db  *gorm.DB
	log *logrus.Entry
}

// Open connects and migrates the history tables.
func Open(cfg *config.Config, log *logrus.Logger) (*HistoryStore, error) {
	if cfg.Store.DSN == "" {
		return nil, fmt.Errorf("store.dsn not configured")
	}
	db, err := gorm.Open(postgres.Open(cfg.Store.DSN), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	if err := db.AutoMigrate(&CommitmentRecord{}, &WithdrawRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history store: %w", err)
	}
	return &HistoryStore{
		db:  db,
		log: log.WithField("component", "history_store"),
	}, nil
}

// SaveCommitment records one commitment submission.
func (s *HistoryStore) SaveCommitment(rec *CommitmentRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save commitment record: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"deposit_id":  rec.DepositID,
		"allocations": rec.AllocationCount,
	}).Debug("commitment recorded")
	return nil
}

// SaveWithdraw records one withdraw submission.
func (s *HistoryStore) SaveWithdraw(rec *WithdrawRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save withdraw record: %w", err)
	}
	return nil
}

// UpdateWithdrawStatus stores the most recently observed backend status for
// a request.
func (s *HistoryStore) UpdateWithdrawStatus(requestID, status string) error {
	res := s.db.Model(&WithdrawRecord{}).
		Where("request_id = ?", requestID).
		Update("last_status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update withdraw status: %w", res.Error)
	}
	return nil
}

// CommitmentsByOwner lists this client's commitments for one owner address,
// newest first.
func (s *HistoryStore) CommitmentsByOwner(owner string) ([]CommitmentRecord, error) {
	var out []CommitmentRecord
	if err := s.db.Where("owner_address = ?", owner).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list commitments: %w", err)
	}
	return out, nil
}

// PendingWithdrawals lists withdrawals whose last observed status is not
// terminal, for reconciliation after a restart.
func (s *HistoryStore) PendingWithdrawals() ([]WithdrawRecord, error) {
	var out []WithdrawRecord
	err := s.db.Where("last_status NOT IN ?",
		[]string{"completed", "failed_permanent", "cancelled"}).
		Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *HistoryStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
