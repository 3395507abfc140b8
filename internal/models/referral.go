package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Referral links an invitee to the account that invited them. An invitee has at most one inviter.
type Referral struct {
	bun.BaseModel `bun:"table:referral"`
	InviteeID     int64     `bun:"invitee_id,pk" json:"invitee_id"`
	InviterID     int64     `bun:"inviter_id" json:"inviter_id"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
