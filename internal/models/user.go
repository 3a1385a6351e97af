package models

import "database/sql"

// User is a row of users.
type User struct {
	UserID            string         `db:"user_id"`
	CompanyID         string         `db:"company_id"`
	Name              string         `db:"name"`
	Email             string         `db:"email"`
	Role              string         `db:"role"`
	ManagerID         sql.NullString `db:"manager_id"`
	IsManagerApprover bool           `db:"is_manager_approver"`
	AuditFields
}
