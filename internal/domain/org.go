package domain

// Owner is the single user account that receives every notification raised
// for an organization.
type Owner struct {
	OrgID   string `json:"org_id" db:"org_id"`
	OrgName string `json:"org_name" db:"org_name"`
	UserID  string `json:"user_id" db:"user_id"`
	Name    string `json:"name" db:"name"`
	Email   string `json:"email" db:"email"`
	Locale  string `json:"locale" db:"locale"`
}
