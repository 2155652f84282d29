package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:user"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	TwitterID     string    `bun:"twitter_id" json:"twitter_id"`
	Username      string    `bun:"username" json:"username"`
	DisplayName   string    `bun:"display_name" json:"display_name"`
	Avatar        *string   `bun:"avatar" json:"avatar"`
	TotalPoints   int       `bun:"total_points" json:"total_points"`
	Rank          *int      `bun:"rank" json:"rank"`
	Monitored     bool      `bun:"monitored" json:"monitored"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

// UserFromAuth only use in middleware
type UserFromAuth struct {
	TwitterID   string `json:"twitter_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}
