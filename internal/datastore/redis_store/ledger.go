package redis_store

import (
	"context"
	"strconv"
	"time"

	"dice/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	fieldBalance     = "balance"
	fieldLastClaimAt = "last_claim_at"
	fieldLastClaimID = "last_claim_id"
	fieldCreatedAt   = "created_at"

	MAX_CLAIM_RECEIPTS = 30
)

// KEYS: account hash, receipts list. ARGV: amount, claim at (unix ms), expected last claim
// (unix ms or "" for never), msgpack receipt (may be ""), receipts cap, receipt id (may be "").
var creditAndStampScript = redis.NewScript(`
local last = redis.call('HGET', KEYS[1], 'last_claim_at')
if not last then
	last = ''
end
if last ~= ARGV[3] then
	return {0, tonumber(redis.call('HGET', KEYS[1], 'balance') or '0')}
end
local balance = redis.call('HINCRBY', KEYS[1], 'balance', ARGV[1])
redis.call('HSET', KEYS[1], 'last_claim_at', ARGV[2])
if ARGV[6] ~= '' then
	redis.call('HSET', KEYS[1], 'last_claim_id', ARGV[6])
else
	redis.call('HDEL', KEYS[1], 'last_claim_id')
end
if ARGV[4] ~= '' then
	redis.call('LPUSH', KEYS[2], ARGV[4])
	redis.call('LTRIM', KEYS[2], 0, tonumber(ARGV[5]) - 1)
end
return {1, balance}
`)

// the hash tag keeps both keys of an account in one cluster slot
func dbKeyLedgerAccount(accountID int64) string {
	return "ledger:{" + strconv.FormatInt(accountID, 10) + "}:account"
}

func dbKeyLedgerClaims(accountID int64) string {
	return "ledger:{" + strconv.FormatInt(accountID, 10) + "}:claims"
}

// Ledger is the Redis implementation of interfaces.Ledger.
type Ledger struct {
	cmd redis.UniversalClient
}

func NewLedger(cmd redis.UniversalClient) *Ledger {
	return &Ledger{cmd}
}

func (ledger *Ledger) Get(ctx context.Context, accountID int64) (*models.Account, error) {
	key := dbKeyLedgerAccount(accountID)
	now := time.Now().UTC()

	var values *redis.SliceCmd
	_, err := ledger.cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, fieldBalance, 0)
		pipe.HSetNX(ctx, key, fieldCreatedAt, now.UnixMilli())
		values = pipe.HMGet(ctx, key, fieldBalance, fieldLastClaimAt, fieldCreatedAt, fieldLastClaimID)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get account %d", accountID)
	}

	return parseAccount(accountID, values.Val())
}

func (ledger *Ledger) CreditAndStamp(ctx context.Context, accountID int64, amount int64, claimAt time.Time, expectedLastClaim *time.Time, receipt *models.DailyClaim) (*models.Account, error) {
	if amount < 0 {
		return nil, models.ErrNegativeCredit
	}

	expected := ""
	if expectedLastClaim != nil {
		expected = strconv.FormatInt(expectedLastClaim.UnixMilli(), 10)
	}

	var b []byte
	var claimID *uuid.UUID
	receiptID := ""
	if receipt != nil {
		var err error
		b, err = msgpack.Marshal(receipt)
		if err != nil {
			return nil, err
		}
		claimID = &receipt.ID
		receiptID = receipt.ID.String()
	}

	result, err := creditAndStampScript.Run(ctx, ledger.cmd,
		[]string{dbKeyLedgerAccount(accountID), dbKeyLedgerClaims(accountID)},
		amount, claimAt.UnixMilli(), expected, b, MAX_CLAIM_RECEIPTS, receiptID,
	).Int64Slice()
	if err != nil {
		return nil, errors.Wrapf(err, "credit and stamp account %d", accountID)
	}

	if len(result) != 2 {
		return nil, errors.Errorf("credit and stamp account %d: unexpected script reply %v", accountID, result)
	}

	if result[0] == 0 {
		return nil, models.ErrClaimConflict
	}

	stamped := time.UnixMilli(claimAt.UnixMilli()).UTC()
	return &models.Account{
		ID:          accountID,
		Balance:     result[1],
		LastClaimAt: &stamped,
		LastClaimID: claimID,
		UpdatedAt:   stamped,
	}, nil
}

func (ledger *Ledger) Credit(ctx context.Context, accountID int64, amount int64) error {
	if amount < 0 {
		return models.ErrNegativeCredit
	}

	err := ledger.cmd.HIncrBy(ctx, dbKeyLedgerAccount(accountID), fieldBalance, amount).Err()
	return errors.Wrapf(err, "credit account %d", accountID)
}

func GetClaimReceipts(ctx context.Context, cmd redis.Cmdable, accountID int64, num int) ([]*models.DailyClaim, error) {
	items, err := cmd.LRange(ctx, dbKeyLedgerClaims(accountID), 0, int64(num-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*models.DailyClaim, 0, len(items))
	for _, item := range items {
		var v *models.DailyClaim
		if err := msgpack.Unmarshal([]byte(item), &v); err != nil {
			return nil, err
		}
		results = append(results, v)
	}

	return results, nil
}

func parseAccount(accountID int64, values []interface{}) (*models.Account, error) {
	account := &models.Account{ID: accountID}
	if len(values) != 4 {
		return nil, errors.Errorf("account %d: unexpected field count %d", accountID, len(values))
	}

	if s, ok := values[0].(string); ok {
		balance, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "account %d: balance", accountID)
		}
		account.Balance = balance
	}

	if s, ok := values[1].(string); ok && s != "" {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "account %d: last claim", accountID)
		}
		lastClaimAt := time.UnixMilli(ms).UTC()
		account.LastClaimAt = &lastClaimAt
		account.UpdatedAt = lastClaimAt
	}

	if s, ok := values[2].(string); ok {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			account.CreatedAt = time.UnixMilli(ms).UTC()
		}
	}

	if s, ok := values[3].(string); ok && s != "" {
		claimID, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.Wrapf(err, "account %d: last claim id", accountID)
		}
		account.LastClaimID = &claimID
	}

	return account, nil
}
