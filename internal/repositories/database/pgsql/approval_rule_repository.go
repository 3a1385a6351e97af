package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	"github.com/SscSPs/expense_approval_app/internal/models"
	"github.com/SscSPs/expense_approval_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ruleColumns = `
	ar.rule_id, ar.company_id, ar.name, ar.description, ar.use_approver_sequence, ar.has_specific_approver,
	ar.specific_approver_id, ar.min_approval_percentage, ar.is_hybrid, ar.is_active, ar.is_default,
	ar.created_at, ar.created_by, ar.last_updated_at, ar.last_updated_by, ar.version`

// PgxApprovalRuleRepository implements portsrepo.ApprovalRuleRepositoryWithTx using pgxpool.
type PgxApprovalRuleRepository struct {
	BaseRepository
}

func newPgxApprovalRuleRepository(pool *pgxpool.Pool) portsrepo.ApprovalRuleRepositoryWithTx {
	return &PgxApprovalRuleRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ApprovalRuleRepositoryWithTx = (*PgxApprovalRuleRepository)(nil)

func scanRule(row pgx.Row) (domain.ApprovalRule, error) {
	var m models.ApprovalRule
	err := row.Scan(
		&m.RuleID, &m.CompanyID, &m.Name, &m.Description, &m.UseApproverSequence, &m.HasSpecificApprover,
		&m.SpecificApproverID, &m.MinApprovalPercentage, &m.IsHybrid, &m.IsActive, &m.IsDefault,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy, &m.Version,
	)
	if err != nil {
		return domain.ApprovalRule{}, err
	}
	return mapping.ToDomainApprovalRule(m), nil
}

func queryRules(ctx context.Context, q querier, sql string, args ...any) ([]domain.ApprovalRule, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query approval rules", err)
	}
	defer rows.Close()

	var out []domain.ApprovalRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan approval rule row", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating approval rule rows", err)
	}
	return out, nil
}

func queryApprovers(ctx context.Context, q querier, ruleID string) ([]domain.RuleApprover, error) {
	rows, err := q.Query(ctx, `
		SELECT ra.rule_id, ra.user_id, u.name, ra.sequence_order, ra.is_required
		FROM rule_approvers ra
		JOIN users u ON u.user_id = ra.user_id
		WHERE ra.rule_id = $1
		ORDER BY ra.sequence_order ASC, ra.user_id ASC`, ruleID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query approvers of rule "+ruleID, err)
	}
	defer rows.Close()

	var out []domain.RuleApprover
	for rows.Next() {
		var a domain.RuleApprover
		if err := rows.Scan(&a.RuleID, &a.UserID, &a.UserName, &a.SequenceOrder, &a.IsRequired); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan rule approver row", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating rule approver rows", err)
	}
	return out, nil
}

const rulesForExpenseQuery = `
	SELECT ` + ruleColumns + `
	FROM approval_rules ar
	JOIN expense_approval_rules ear ON ear.rule_id = ar.rule_id
	WHERE ear.expense_id = $1
	ORDER BY ear.link_seq ASC`

// FindRuleByID retrieves a rule by its ID.
func (r *PgxApprovalRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.ApprovalRule, error) {
	rule, err := scanRule(r.Pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM approval_rules ar WHERE ar.rule_id = $1`, ruleID))
	if err != nil {
		return nil, mapReadError(err, "approval rule "+ruleID)
	}
	return &rule, nil
}

// ListRulesByCompany lists a company's rules by name.
func (r *PgxApprovalRuleRepository) ListRulesByCompany(ctx context.Context, companyID string, includeInactive bool) ([]domain.ApprovalRule, error) {
	return queryRules(ctx, r.Pool, `
		SELECT `+ruleColumns+` FROM approval_rules ar
		WHERE ar.company_id = $1 AND (ar.is_active OR $2)
		ORDER BY ar.name ASC, ar.created_at ASC`, companyID, includeInactive)
}

// FindApproversForRule returns the rule's approvers in sequence order.
func (r *PgxApprovalRuleRepository) FindApproversForRule(ctx context.Context, ruleID string) ([]domain.RuleApprover, error) {
	return queryApprovers(ctx, r.Pool, ruleID)
}

// FindDefaultRule returns the company's active default rule.
func (r *PgxApprovalRuleRepository) FindDefaultRule(ctx context.Context, companyID string) (*domain.ApprovalRule, error) {
	rule, err := scanRule(r.Pool.QueryRow(ctx, `
		SELECT `+ruleColumns+` FROM approval_rules ar
		WHERE ar.company_id = $1 AND ar.is_default AND ar.is_active`, companyID))
	if err != nil {
		return nil, mapReadError(err, "default approval rule")
	}
	return &rule, nil
}

// FindRulesForExpense returns the rules linked to an expense in link order.
func (r *PgxApprovalRuleRepository) FindRulesForExpense(ctx context.Context, expenseID string) ([]domain.ApprovalRule, error) {
	return queryRules(ctx, r.Pool, rulesForExpenseQuery, expenseID)
}

func (r *PgxApprovalRuleRepository) CountOpenExpensesForRule(ctx context.Context, ruleID string) (int, error) {
	var n int
	err := r.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM expense_approval_rules ear
		JOIN expenses e ON e.expense_id = ear.expense_id
		WHERE ear.rule_id = $1 AND e.status NOT IN ($2, $3)`,
		ruleID, string(domain.ExpenseApproved), string(domain.ExpenseRejected)).Scan(&n)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to count expenses linked to rule", err)
	}
	return n, nil
}

func (r *PgxApprovalRuleRepository) FindRulesForExpenseInTx(ctx context.Context, tx pgx.Tx, expenseID string) ([]domain.ApprovalRule, error) {
	return queryRules(ctx, tx, rulesForExpenseQuery, expenseID)
}

func (r *PgxApprovalRuleRepository) FindApproversForRuleInTx(ctx context.Context, tx pgx.Tx, ruleID string) ([]domain.RuleApprover, error) {
	return queryApprovers(ctx, tx, ruleID)
}

// SaveRule inserts a rule together with its approvers.
func (r *PgxApprovalRuleRepository) SaveRule(ctx context.Context, rule domain.ApprovalRule, approvers []domain.RuleApprover) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	m := mapping.ToModelApprovalRule(rule)
	_, err = tx.Exec(ctx, `
		INSERT INTO approval_rules (
			rule_id, company_id, name, description, use_approver_sequence, has_specific_approver,
			specific_approver_id, min_approval_percentage, is_hybrid, is_active, is_default,
			created_at, created_by, last_updated_at, last_updated_by, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		m.RuleID, m.CompanyID, m.Name, m.Description, m.UseApproverSequence, m.HasSpecificApprover,
		m.SpecificApproverID, m.MinApprovalPercentage, m.IsHybrid, m.IsActive, false,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "failed to insert approval rule")
	}

	if len(approvers) > 0 {
		batch := &pgx.Batch{}
		for _, a := range approvers {
			batch.Queue(`INSERT INTO rule_approvers (rule_id, user_id, sequence_order, is_required) VALUES ($1, $2, $3, $4)`,
				rule.RuleID, a.UserID, a.SequenceOrder, a.IsRequired)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return mapWriteError(err, "failed to insert rule approvers")
		}
	}

	return r.Commit(ctx, tx)
}

// UpdateRule writes the mutable fields of a rule if its version is unchanged.
func (r *PgxApprovalRuleRepository) UpdateRule(ctx context.Context, rule domain.ApprovalRule) error {
	m := mapping.ToModelApprovalRule(rule)
	tag, err := r.Pool.Exec(ctx, `
		UPDATE approval_rules
		SET name = $1, description = $2, use_approver_sequence = $3, has_specific_approver = $4,
		    specific_approver_id = $5, min_approval_percentage = $6, is_hybrid = $7, is_active = $8,
		    is_default = is_default AND $8,
		    last_updated_at = $9, last_updated_by = $10, version = version + 1
		WHERE rule_id = $11 AND version = $12`,
		m.Name, m.Description, m.UseApproverSequence, m.HasSpecificApprover,
		m.SpecificApproverID, m.MinApprovalPercentage, m.IsHybrid, m.IsActive,
		m.LastUpdatedAt, m.LastUpdatedBy, m.RuleID, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "failed to update approval rule")
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindRuleByID(ctx, rule.RuleID); err != nil {
			return err
		}
		return apperrors.NewAppError(409, "approval rule "+rule.RuleID+" was modified concurrently", apperrors.ErrConflict)
	}
	return nil
}

// DeleteRule removes a rule; its approvers and expense links cascade.
func (r *PgxApprovalRuleRepository) DeleteRule(ctx context.Context, ruleID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM approval_rules WHERE rule_id = $1`, ruleID)
	if err != nil {
		return mapWriteError(err, "failed to delete approval rule")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("approval rule " + ruleID + " not found")
	}
	return nil
}

// AddApprover adds a user to a rule. Adding the same user twice is ErrDuplicate.
func (r *PgxApprovalRuleRepository) AddApprover(ctx context.Context, approver domain.RuleApprover) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO rule_approvers (rule_id, user_id, sequence_order, is_required) VALUES ($1, $2, $3, $4)`,
		approver.RuleID, approver.UserID, approver.SequenceOrder, approver.IsRequired,
	)
	if err != nil {
		return mapWriteError(err, "approver "+approver.UserID+" of rule "+approver.RuleID)
	}
	return nil
}

func (r *PgxApprovalRuleRepository) RemoveApprover(ctx context.Context, ruleID, userID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM rule_approvers WHERE rule_id = $1 AND user_id = $2`, ruleID, userID)
	if err != nil {
		return mapWriteError(err, "failed to remove approver")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("approver " + userID + " not found on rule " + ruleID)
	}
	return nil
}

// SetDefaultRule makes ruleID the only default rule of the company.
func (r *PgxApprovalRuleRepository) SetDefaultRule(ctx context.Context, companyID, ruleID, updatedBy string, updatedAt time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	if _, err := tx.Exec(ctx, `UPDATE approval_rules SET is_default = FALSE WHERE company_id = $1 AND is_default`, companyID); err != nil {
		return mapWriteError(err, "failed to clear default approval rule")
	}
	tag, err := tx.Exec(ctx, `
		UPDATE approval_rules
		SET is_default = TRUE, last_updated_at = $1, last_updated_by = $2, version = version + 1
		WHERE rule_id = $3 AND company_id = $4`,
		updatedAt, updatedBy, ruleID, companyID)
	if err != nil {
		return mapWriteError(err, "failed to set default approval rule")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("approval rule " + ruleID + " not found")
	}
	return r.Commit(ctx, tx)
}

// LinkRuleToExpenseInTx links a rule to an expense. Linking an already linked rule is a no-op.
func (r *PgxApprovalRuleRepository) LinkRuleToExpenseInTx(ctx context.Context, tx pgx.Tx, expenseID, ruleID, linkedBy string, linkedAt time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO expense_approval_rules (expense_id, rule_id, linked_at, linked_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (expense_id, rule_id) DO NOTHING`,
		expenseID, ruleID, linkedAt, linkedBy)
	if err != nil {
		return mapWriteError(err, "failed to link approval rule")
	}
	return nil
}
