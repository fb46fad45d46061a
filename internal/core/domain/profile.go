package domain

import "time"

// Profile holds the user directory record. Name and Phone are encrypted at
// rest by the repository; the domain type always carries plaintext.
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Interests string    `json:"interests"`
	CreatedAt time.Time `json:"created_at"`
}
