package models

import (
	"strconv"
	"strings"
)

// Scope selects which items a listing covers. OwnerID == 0 means all items.
type Scope struct {
	OwnerID uint
}

func AllItems() Scope { return Scope{} }

func ItemsByOwner(ownerID uint) Scope { return Scope{OwnerID: ownerID} }

func (s Scope) ByOwner() bool { return s.OwnerID != 0 }

func (s Scope) String() string {
	if s.ByOwner() {
		return "ByOwner:" + strconv.FormatUint(uint64(s.OwnerID), 10)
	}
	return "AllItems"
}

type SortKey string

const (
	SortID        SortKey = "id"
	SortCreatedAt SortKey = "createdAt"
	SortTitle     SortKey = "title"
	SortLikeCount SortKey = "likeCount"
	SortHateCount SortKey = "hateCount"
)

// DefaultSort is used when the request names no sort key.
const DefaultSort = SortCreatedAt

var sortKeys = map[string]SortKey{
	"id":         SortID,
	"createdat":  SortCreatedAt,
	"created_at": SortCreatedAt,
	"title":      SortTitle,
	"likecount":  SortLikeCount,
	"like_count": SortLikeCount,
	"hatecount":  SortHateCount,
	"hate_count": SortHateCount,
}

// ParseSortKey returns DefaultSort for an empty string and false for unknown keys.
func ParseSortKey(s string) (SortKey, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultSort, true
	}
	k, ok := sortKeys[s]
	return k, ok
}

// Aggregate reports whether the key is computed from votes rather than stored on the item.
func (k SortKey) Aggregate() bool {
	return k == SortLikeCount || k == SortHateCount
}

// Reaction maps an aggregate sort key to the reaction it counts.
func (k SortKey) Reaction() ReactionKind {
	if k == SortHateCount {
		return ReactionHate
	}
	return ReactionLike
}

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection never fails: anything other than ASC is DESC.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}
