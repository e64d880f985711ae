package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/casetrack-be/internal/cases"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

const caseColumns = `case_number, nerves_treated, op_date, case_type, clinical_system, site, surgeon,
	user_status, specialty, extremity, surgery_description, neuroma_case, case_study, region,
	created_at, updated_at, deleted_at`

// CreateCase inserts a case. A soft-deleted case with the same number is
// replaced; a live one is a conflict.
func (s *Store) CreateCase(ctx context.Context, c models.Case) (models.Case, error) {
	const query = `
		INSERT INTO cases (case_number, nerves_treated, op_date, case_type, clinical_system, site, surgeon,
			user_status, specialty, extremity, surgery_description, neuroma_case, case_study, region)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (case_number) DO UPDATE SET
			nerves_treated = EXCLUDED.nerves_treated, op_date = EXCLUDED.op_date, case_type = EXCLUDED.case_type,
			clinical_system = EXCLUDED.clinical_system, site = EXCLUDED.site, surgeon = EXCLUDED.surgeon,
			user_status = EXCLUDED.user_status, specialty = EXCLUDED.specialty, extremity = EXCLUDED.extremity,
			surgery_description = EXCLUDED.surgery_description, neuroma_case = EXCLUDED.neuroma_case,
			case_study = EXCLUDED.case_study, region = EXCLUDED.region,
			created_at = NOW(), updated_at = NOW(), deleted_at = NULL
		WHERE cases.deleted_at IS NOT NULL
		RETURNING ` + caseColumns + `;`
	row := s.pool.QueryRow(ctx, query, caseArgs(c)...)
	created, err := scanCase(row)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// the conflict arm did not fire, so a live case holds the number
			return models.Case{}, storage.ErrAlreadyExists
		}
		return models.Case{}, fmt.Errorf("create case: %w", err)
	}
	return created, nil
}

// GetCase fetches a live case by number.
func (s *Store) GetCase(ctx context.Context, caseNumber string) (models.Case, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_number = $1 AND deleted_at IS NULL;`, caseNumber)
	c, err := scanCase(row)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.Case{}, fmt.Errorf("get case: %w", err)
	}
	return c, err
}

// ListCases runs the filter, order and page in SQL and returns the matching
// page together with the unpaged match count.
func (s *Store) ListCases(ctx context.Context, q storage.CaseQuery) ([]models.Case, int, error) {
	where, args := buildCaseWhere(q.Filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM cases WHERE `+where+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	query := `SELECT ` + caseColumns + ` FROM cases WHERE ` + where + ` ORDER BY ` + orderClause(q.Order)
	if q.Page != nil {
		args = append(args, q.Page.Limit, q.Page.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.pool.Query(ctx, query+";", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Case, error) {
		return scanCase(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan cases: %w", err)
	}
	return list, total, nil
}

// UpdateCase overwrites a live case identified by its number.
func (s *Store) UpdateCase(ctx context.Context, c models.Case) (models.Case, error) {
	const query = `
		UPDATE cases SET nerves_treated = $2, op_date = $3, case_type = $4, clinical_system = $5, site = $6,
			surgeon = $7, user_status = $8, specialty = $9, extremity = $10, surgery_description = $11,
			neuroma_case = $12, case_study = $13, region = $14, updated_at = NOW()
		WHERE case_number = $1 AND deleted_at IS NULL
		RETURNING ` + caseColumns + `;`
	updated, err := scanCase(s.pool.QueryRow(ctx, query, caseArgs(c)...))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.Case{}, fmt.Errorf("update case: %w", err)
	}
	return updated, err
}

// DeleteCase marks a live case as deleted.
func (s *Store) DeleteCase(ctx context.Context, caseNumber string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE cases SET deleted_at = NOW() WHERE case_number = $1 AND deleted_at IS NULL;`, caseNumber)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpsertCases writes list in a single transaction.
func (s *Store) UpsertCases(ctx context.Context, list []models.Case) error {
	const query = `
		INSERT INTO cases (case_number, nerves_treated, op_date, case_type, clinical_system, site, surgeon,
			user_status, specialty, extremity, surgery_description, neuroma_case, case_study, region)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (case_number) DO UPDATE SET
			nerves_treated = EXCLUDED.nerves_treated, op_date = EXCLUDED.op_date, case_type = EXCLUDED.case_type,
			clinical_system = EXCLUDED.clinical_system, site = EXCLUDED.site, surgeon = EXCLUDED.surgeon,
			user_status = EXCLUDED.user_status, specialty = EXCLUDED.specialty, extremity = EXCLUDED.extremity,
			surgery_description = EXCLUDED.surgery_description, neuroma_case = EXCLUDED.neuroma_case,
			case_study = EXCLUDED.case_study, region = EXCLUDED.region, updated_at = NOW(), deleted_at = NULL;`
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range list {
			batch.Queue(query, caseArgs(c)...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("upsert cases: %w", err)
	}
	return nil
}

func caseArgs(c models.Case) []any {
	return []any{
		c.CaseNumber, c.NervesTreated, c.OpDate, c.CaseType, c.ClinicalSystem, c.Site, c.Surgeon,
		c.UserStatus, c.Specialty, c.Extremity, c.SurgeryDescription, c.NeuromaCase, c.CaseStudy, c.Region,
	}
}

func scanCase(row pgx.Row) (models.Case, error) {
	var c models.Case
	err := row.Scan(&c.CaseNumber, &c.NervesTreated, &c.OpDate, &c.CaseType, &c.ClinicalSystem, &c.Site, &c.Surgeon,
		&c.UserStatus, &c.Specialty, &c.Extremity, &c.SurgeryDescription, &c.NeuromaCase, &c.CaseStudy, &c.Region,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Case{}, storage.ErrNotFound
		}
		return models.Case{}, err
	}
	return c, nil
}

// buildCaseWhere renders f as a parameterised predicate with the same
// semantics as cases.Filter.Match.
func buildCaseWhere(f cases.Filter) (string, []any) {
	clauses := []string{"deleted_at IS NULL"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	equal := []struct {
		column, value string
	}{
		{"case_type", f.Type},
		{"specialty", f.Specialty},
		{"region", f.Region},
		{"extremity", f.Extremity},
		{"user_status", f.UserStatus},
		{"surgeon", f.Surgeon},
	}
	for _, e := range equal {
		if e.value != "" {
			clauses = append(clauses, fmt.Sprintf("lower(%s) = lower(%s)", e.column, arg(e.value)))
		}
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "op_date >= "+arg(cases.DayOf(f.From))+"::date")
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "op_date <= "+arg(cases.DayOf(f.To))+"::date")
	}
	if f.Search != "" {
		p := arg(strings.ToLower(f.Search))
		var ors []string
		for _, col := range []string{"case_number", "surgeon", "site", "clinical_system", "specialty", "region", "surgery_description"} {
			ors = append(ors, fmt.Sprintf("position(%s in lower(%s)) > 0", p, col))
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	return strings.Join(clauses, " AND "), args
}

var orderColumns = map[string]string{
	cases.SortCaseNumber:    "case_number",
	cases.SortOpDate:        "op_date",
	cases.SortNervesTreated: "nerves_treated",
	cases.SortSurgeon:       "lower(surgeon)",
	cases.SortSpecialty:     "lower(specialty)",
	cases.SortRegion:        "lower(region)",
}

func orderClause(o cases.Order) string {
	if o.Field == "" {
		o = cases.DefaultOrder
	}
	desc := o.Desc
	column, ok := orderColumns[o.Field]
	if o.Field == cases.SortSurvivalDays {
		column, desc = "op_date", !desc
	} else if !ok {
		column = "op_date"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return column + " " + dir + ", case_number ASC"
}
