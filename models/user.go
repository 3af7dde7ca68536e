package models

import "strings"

type UserRole string

const (
	RoleAssigner UserRole = "assigner"
	RoleWriter   UserRole = "writer"
)

// Username suffix convention. The suffix is the only role signal available
// at login, so it is enforced when the account is created and checked again
// on every login.
const (
	SuffixAssigner = "_asg"
	SuffixWriter   = "_wrt"
)

// RoleSuffix returns the username suffix accounts of this role must carry.
func (r UserRole) Suffix() string {
	if r == RoleWriter {
		return SuffixWriter
	}
	return SuffixAssigner
}

// UsernameMatchesRole checks the suffix convention for a role.
func UsernameMatchesRole(username string, role UserRole) bool {
	return strings.HasSuffix(username, role.Suffix())
}

// PortfolioItem is one past-work sample on a writer profile.
type PortfolioItem struct {
	Title string `json:"title" bson:"title"`
	URL   string `json:"url" bson:"url"`
}

// UserProfile represents either role. Writer-only fields stay unset on
// assigner documents. A profile is mutated only by its own user and
// read-shared by everyone else for discovery.
type UserProfile struct {
	ID             string          `json:"id" bson:"_id,omitempty"`
	Username       string          `json:"username" bson:"username"`
	Name           string          `json:"name" bson:"name"`
	Role           UserRole        `json:"role" bson:"role"`
	Password       string          `json:"password,omitempty" bson:"password"`
	Rating         float64         `json:"rating" bson:"rating"`
	CompletedTasks int             `json:"completedTasks" bson:"completedTasks"`
	Avatar         string          `json:"avatar" bson:"avatar"`
	Bio            string          `json:"bio,omitempty" bson:"bio,omitempty"`
	Specialties    []string        `json:"specialties,omitempty" bson:"specialties,omitempty"`
	Earnings       float64         `json:"earnings,omitempty" bson:"earnings,omitempty"`
	PricePerPage   float64         `json:"pricePerPage,omitempty" bson:"pricePerPage,omitempty"`
	IsBusy         bool            `json:"isBusy,omitempty" bson:"isBusy,omitempty"`
	IsBargainable  bool            `json:"isBargainable,omitempty" bson:"isBargainable,omitempty"`
	Portfolio      []PortfolioItem `json:"portfolio,omitempty" bson:"portfolio,omitempty"`
}
