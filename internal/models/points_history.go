package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PointsHistory struct {
	bun.BaseModel `bun:"table:points_history"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	Points        int       `bun:"points" json:"points"`
	Reason        string    `bun:"reason" json:"reason"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
