package models

// Group represents a set of members who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	// Description is optional free text.
	Description string

	// Category is an optional label such as "trip" or "home".
	Category string

	// CreatedBy is the user ID of the creator, who is the group's only admin.
	CreatedBy string

	// Members is the list of member user IDs. Order is not significant.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last membership change.
	UpdatedAt int64
}

// IsAdmin reports whether userID administers the group.
func (g *Group) IsAdmin(userID string) bool {
	return userID != "" && g.CreatedBy == userID
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// GroupSummary is a group as listed for one user, with its expense count and total.
type GroupSummary struct {
	Group
	ExpenseCount int
	TotalSpent   float64
}
