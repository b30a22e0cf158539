package models

import (
	"strings"
	"time"
)

type ReactionKind string

const (
	ReactionLike ReactionKind = "LIKE"
	ReactionHate ReactionKind = "HATE"
)

func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionHate
}

// ParseReactionKind accepts "like"/"hate" in any case.
func ParseReactionKind(s string) (ReactionKind, bool) {
	k := ReactionKind(strings.ToUpper(strings.TrimSpace(s)))
	return k, k.Valid()
}

// Vote holds one voter's reaction to one item.
// The (user_id, item_id) unique index backs the one-vote-per-item rule.
type Vote struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_vote_user_item,priority:1" json:"user_id"`
	ItemID    uint         `gorm:"not null;index;uniqueIndex:idx_vote_user_item,priority:2" json:"item_id"`
	Item      Item         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Kind      ReactionKind `gorm:"size:8;not null;index" json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
