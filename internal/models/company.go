package models

// Company is a row of companies.
type Company struct {
	CompanyID    string `db:"company_id"`
	Name         string `db:"name"`
	CurrencyCode string `db:"currency_code"`
	Country      string `db:"country"`
	AuditFields
}
