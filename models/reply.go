package models

import "time"

// Reply is an answer to a post. It cannot exist without its post.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Username  string    `gorm:"size:80" json:"username"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Author returns the display name stored on the reply.
func (r Reply) Author() string {
	if r.Username == "" {
		return "anonymous"
	}
	return r.Username
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Reply{}}
}
