package models

import (
	"time"

	"github.com/uptrace/bun"
)

type QuestType string

const (
	QuestTypeFollow   QuestType = "follow"
	QuestTypeJoin     QuestType = "join"
	QuestTypeRedirect QuestType = "redirect"
	QuestTypePost     QuestType = "post"
	QuestTypeCustom   QuestType = "custom"
)

type QuestStatus string

const (
	QuestStatusNotStarted QuestStatus = "not_started"
	QuestStatusInProgress QuestStatus = "in_progress"
	QuestStatusCompleted  QuestStatus = "completed"
	QuestStatusClaimed    QuestStatus = "claimed"
)

// CanTransitionTo enforces the strict forward-only progression.
// claimed is terminal.
func (s QuestStatus) CanTransitionTo(next QuestStatus) bool {
	switch s {
	case QuestStatusNotStarted:
		return next == QuestStatusInProgress
	case QuestStatusInProgress:
		return next == QuestStatusCompleted
	case QuestStatusCompleted:
		return next == QuestStatusClaimed
	case QuestStatusClaimed:
		return false
	}
	return false
}

type Quest struct {
	bun.BaseModel        `bun:"table:quest"`
	ID                   int64     `bun:"id,pk,autoincrement" json:"id"`
	Title                string    `bun:"title" json:"title"`
	Description          *string   `bun:"description" json:"description"`
	Type                 QuestType `bun:"type" json:"type"`
	Points               int       `bun:"points" json:"points"`
	Link                 *string   `bun:"link" json:"link"`
	Enabled              bool      `bun:"enabled" json:"-"`
	Priority             int       `bun:"priority" json:"priority"`
	RequiresVerification bool      `bun:"requires_verification" json:"requires_verification"`

	Status QuestStatus `bun:"-" json:"status,omitempty"`
}

type UserQuest struct {
	bun.BaseModel `bun:"table:user_quest"`
	ID            int64       `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64       `bun:"user_id" json:"user_id"`
	QuestID       int64       `bun:"quest_id" json:"quest_id"`
	Status        QuestStatus `bun:"status" json:"status"`
	StartedAt     *time.Time  `bun:"started_at" json:"started_at"`
	CompletedAt   *time.Time  `bun:"completed_at" json:"completed_at"`
	ClaimedAt     *time.Time  `bun:"claimed_at" json:"claimed_at"`
}
