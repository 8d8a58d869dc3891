package domain

import "time"

// Profile is the one-per-user profile document. Experience entries are
// embedded as an ordered sequence, newest first.
type Profile struct {
	UserID     string            `json:"user_id"`
	UserName   string            `json:"user_name,omitempty"`
	Status     string            `json:"status"`
	Website    string            `json:"website,omitempty"`
	Skills     []string          `json:"skills"`
	Social     map[string]string `json:"social,omitempty"`
	Experience []Experience      `json:"experience"`
}

// Experience is a single entry in a profile's experience sequence.
type Experience struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current,omitempty"`
	Description string     `json:"description,omitempty"`
}
