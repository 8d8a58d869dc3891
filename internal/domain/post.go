package domain

import "time"

// Post is a feed entry. Likes and comments are embedded ordered sequences,
// newest first. Likes holds user ids with at-most-once membership.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Body      string    `json:"body"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is an embedded sub-document of a post, carrying its own like set.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// HasLike reports whether userID is already in the post's like set.
func (p *Post) HasLike(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
