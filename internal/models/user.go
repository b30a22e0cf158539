package models

import (
	"strings"
	"time"
)

// User is only read by the core: owner display names and profile summaries.
// Registration and credentials live in the auth service.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Email     string    `gorm:"uniqueIndex;size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName 返回展示用的用户名称
func (u *User) FullName() string {
	if u == nil {
		return "Unknown User"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return "Unknown User"
}

// Profile is the cached per-user summary served by the profile endpoint.
type Profile struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ItemCount     int64  `json:"item_count"`
	LikesReceived int64  `json:"likes_received"`
	HatesReceived int64  `json:"hates_received"`
}
