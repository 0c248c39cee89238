package domain

// Profile is the durable per-email lead record. Counters are monotonically
// non-decreasing and Registered never transitions back to false.
type Profile struct {
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	School       string `json:"school,omitempty"`
	City         string `json:"city,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Registered   bool   `json:"is_registered"`
	GuestCount   int    `json:"guest_count"`
	PostRegCount int    `json:"post_reg_count"`
	CreatedAt    string `json:"created_at,omitempty"`
	LastUpdated  string `json:"last_updated,omitempty"`
}

// ProfileStats is the quota-relevant slice of a Profile read on every routed
// turn. The zero value stands in for a fresh, unregistered lead.
type ProfileStats struct {
	Registered   bool
	GuestCount   int
	PostRegCount int
}

// LeadUpdate is a partial profile write. Empty string fields are left
// untouched by the store; MarkRegistered flips the one-way registered flag
// and initializes the post-registration counter if absent.
type LeadUpdate struct {
	Email          string
	Name           string
	School         string
	City           string
	Phone          string
	MarkRegistered bool
}
