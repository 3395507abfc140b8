package services

import (
	"context"
	"sync"
	"time"

	"dice/internal/models"

	"github.com/google/uuid"
)

// fakeLedger is an in-memory interfaces.Ledger with fault injection.
type fakeLedger struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	receipts []*models.DailyClaim

	getErr    error
	creditErr error
	// beforeCAS runs under the lock before the compare; returning an error aborts the call with it.
	beforeCAS func(l *fakeLedger, accountID int64) error
	// afterCAS runs after a successful write; returning an error hides the success from the caller.
	afterCAS func() error

	casCalls int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{accounts: map[int64]*models.Account{}}
}

func (l *fakeLedger) account(accountID int64) *models.Account {
	account, ok := l.accounts[accountID]
	if !ok {
		account = &models.Account{ID: accountID, CreatedAt: time.Now()}
		l.accounts[accountID] = account
	}
	return account
}

func (l *fakeLedger) Get(ctx context.Context, accountID int64) (*models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.getErr != nil {
		return nil, l.getErr
	}

	copied := *l.account(accountID)
	return &copied, nil
}

func (l *fakeLedger) CreditAndStamp(ctx context.Context, accountID int64, amount int64, claimAt time.Time, expectedLastClaim *time.Time, receipt *models.DailyClaim) (*models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.casCalls++
	if amount < 0 {
		return nil, models.ErrNegativeCredit
	}

	if l.beforeCAS != nil {
		if err := l.beforeCAS(l, accountID); err != nil {
			return nil, err
		}
	}

	account := l.account(accountID)
	switch {
	case account.LastClaimAt == nil && expectedLastClaim == nil:
	case account.LastClaimAt != nil && expectedLastClaim != nil && account.LastClaimAt.Equal(*expectedLastClaim):
	default:
		return nil, models.ErrClaimConflict
	}

	stamped := claimAt
	account.Balance += amount
	account.LastClaimAt = &stamped
	account.LastClaimID = nil
	if receipt != nil {
		claimID := receipt.ID
		account.LastClaimID = &claimID
		l.receipts = append(l.receipts, receipt)
	}

	if l.afterCAS != nil {
		if err := l.afterCAS(); err != nil {
			return nil, err
		}
	}

	copied := *account
	return &copied, nil
}

func (l *fakeLedger) Credit(ctx context.Context, accountID int64, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount < 0 {
		return models.ErrNegativeCredit
	}
	if l.creditErr != nil {
		return l.creditErr
	}

	l.account(accountID).Balance += amount
	return nil
}

func (l *fakeLedger) balance(accountID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account(accountID).Balance
}

// stampAs simulates a claim made by someone else; call it with the lock held.
func (l *fakeLedger) stampAs(accountID int64, at time.Time, amount int64) {
	account := l.account(accountID)
	claimID := uuid.New()
	account.Balance += amount
	account.LastClaimAt = &at
	account.LastClaimID = &claimID
}
