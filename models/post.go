package models

import "time"

// Post is a forum thread starter. UserID is a weak reference: the author name
// is copied into Username at creation time and survives the user row.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Username  string    `gorm:"size:80" json:"username"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Replies   []Reply   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Author returns the display name stored on the post.
func (p Post) Author() string {
	if p.Username == "" {
		return "anonymous"
	}
	return p.Username
}
