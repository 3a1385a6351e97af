package domain

// Company is the tenant that owns users, approval rules and expenses.
type Company struct {
	CompanyID    string `json:"companyID"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currencyCode"` // Reimbursement currency, 3-letter code
	Country      string `json:"country"`
	AuditFields
}
