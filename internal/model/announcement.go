package model

import "time"

const MaxPinnedPerScope = 3

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsPinned  bool      `json:"isPinned"`
	ClanID    string    `json:"clanId,omitempty"`
	AuthorID  string    `json:"authorId"`
	ViewCount int64     `json:"viewCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AnnouncementFilter struct {
	ClanID     string
	PinnedOnly bool
	From       *time.Time
	To         *time.Time
	Keyword    string
}
