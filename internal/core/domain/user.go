package domain

// UserRole is the role of a user inside their company.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleManager  UserRole = "manager"
	RoleEmployee UserRole = "employee"
)

// User represents a member of a company.
type User struct {
	UserID            string   `json:"userID"`    // Primary Key (e.g., UUID)
	CompanyID         string   `json:"companyID"` // FK -> companies.company_id
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Role              UserRole `json:"role"`
	ManagerID         *string  `json:"managerID,omitempty"` // Nullable self reference
	IsManagerApprover bool     `json:"isManagerApprover"`   // Route submissions to the manager first
	AuditFields
}

// ApprovingManagerID returns the manager that must approve this user's expenses first, if any.
func (u User) ApprovingManagerID() (string, bool) {
	if !u.IsManagerApprover || u.ManagerID == nil || *u.ManagerID == "" {
		return "", false
	}
	return *u.ManagerID, true
}

// IsAdmin reports whether the user administers the company's approval rules.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanReviewExpenses reports whether the user may view other employees' expenses.
func (u User) CanReviewExpenses() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}
