package models

import (
	"time"
)

type Item struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemSummary 列表中的单个条目，带实时的 like/hate 计数和当前访问者的反应
type ItemSummary struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DescriptionHTML string    `json:"description_html"`
	UserID          uint      `json:"user_id"`
	UserName        string    `json:"user_name"`
	CreatedAt       time.Time `json:"created_at"`
	LikeCount       int64     `json:"like_count"`
	HateCount       int64     `json:"hate_count"`
	UserLiked       bool      `json:"user_liked"`
	UserHated       bool      `json:"user_hated"`
}

// RankedPage is a derived, cacheable view. It is never written to the database.
type RankedPage struct {
	Content       []ItemSummary `json:"content"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
	TotalElements int64         `json:"total_elements"`
	TotalPages    int           `json:"total_pages"`
	Last          bool          `json:"last"`
}
