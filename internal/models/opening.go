// internal/models/opening.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Opening is a generated artifact a user saved to their account.
type Opening struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Theme      string    `json:"theme"`
	VideoURL   string    `json:"video_url"`
	PreviewURL string    `json:"preview_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewOpeningID allocates an identifier in the opening_<uuid> form.
func NewOpeningID() string {
	return fmt.Sprintf("opening_%s", uuid.New().String())
}

// User is an authenticated principal known to the service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
