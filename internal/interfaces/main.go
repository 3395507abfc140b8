package interfaces

import (
	"context"
	"time"

	"dice/internal/models"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// Ledger is the durable account store. CreditAndStamp is the only way a claim
// reaches storage: the expected last claim acts as the optimistic concurrency token.
type Ledger interface {
	Get(ctx context.Context, accountID int64) (*models.Account, error)
	CreditAndStamp(ctx context.Context, accountID int64, amount int64, claimAt time.Time, expectedLastClaim *time.Time, receipt *models.DailyClaim) (*models.Account, error)
	Credit(ctx context.Context, accountID int64, amount int64) error
}
