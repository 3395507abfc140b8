package models

import "time"

// Reminder is the last daily-ready notification sent to an account, kept in redis.
type Reminder struct {
	AccountID int64     `msgpack:"account_id"`
	ForClaim  time.Time `msgpack:"for_claim"`
	SentAt    time.Time `msgpack:"sent_at"`
}
