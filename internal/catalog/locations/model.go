package locations

import (
	"time"
)

// Location represents a stock-holding site. Like products, the identifier is
// operator-chosen.
type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
