package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dersplan/internal/adapters/storage"
	domain "dersplan/internal/domain/plan"
)

// Table is the plan table name, shared with the hosted record store.
const Table = "ozel_ders_planlari"

// timeLayout is fixed width so stored timestamps compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Columns lists the plan columns in scan order.
var Columns = append([]string{
	"id", "user_id", "title", "date", "class_level", "subject", "curriculum_topic", "duration",
}, append(domain.SectionKeys(), "created_at")...)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new plan SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Create inserts a plan with a fresh id and creation time.
// PRE: p has been validated
// POST: Row inserted; returns the new id
func (s *SQLiteStore) Create(ctx context.Context, p domain.Plan) (string, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = s.now().UTC()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(Columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", Table, strings.Join(Columns, ", "), placeholders)

	args := []any{p.ID, p.Owner, p.Title, p.Date.Format(domain.DateLayout), p.ClassLevel, p.Subject, p.CurriculumTopic, p.DurationMinutes}
	for _, key := range domain.SectionKeys() {
		args = append(args, p.Section(key))
	}
	args = append(args, p.CreatedAt.Format(timeLayout))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Update replaces the editable fields of an existing plan.
// PRE: p.ID is non-empty, p has been validated
// POST: Row updated, user_id and created_at untouched; ErrNotFound when no row matched
func (s *SQLiteStore) Update(ctx context.Context, p domain.Plan) error {
	sets := []string{"title = ?", "date = ?", "class_level = ?", "subject = ?", "curriculum_topic = ?", "duration = ?"}
	args := []any{p.Title, p.Date.Format(domain.DateLayout), p.ClassLevel, p.Subject, p.CurriculumTopic, p.DurationMinutes}
	for _, key := range domain.SectionKeys() {
		sets = append(sets, key+" = ?")
		args = append(args, p.Section(key))
	}
	args = append(args, p.ID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", Table, strings.Join(sets, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireOneRow(result)
}

// Delete removes a plan.
// PRE: id is non-empty
// POST: Row removed; ErrNotFound when no row matched
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM "+Table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireOneRow(result)
}

// GetByID retrieves a plan by its id.
// PRE: id is non-empty
// POST: Returns the plan or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Plan, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(Columns, ", "), Table)
	p, err := scanPlan(s.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Plan{}, domain.ErrNotFound
	}
	return p, err
}

// List retrieves plans matching the filter, date descending.
// PRE: filter.Owner is non-empty
// POST: Returns matching plans; an empty result is not an error
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Plan, error) {
	var queryBuilder strings.Builder
	var args []any

	fmt.Fprintf(&queryBuilder, "SELECT %s FROM %s WHERE user_id = ?", strings.Join(Columns, ", "), Table)
	args = append(args, filter.Owner)

	if !filter.CreatedAfter.IsZero() {
		queryBuilder.WriteString(" AND created_at > ?")
		args = append(args, filter.CreatedAfter.UTC().Format(timeLayout))
	}

	queryBuilder.WriteString(" ORDER BY date DESC, created_at DESC")
	if filter.Limit > 0 {
		queryBuilder.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// scanPlan extracts a Plan from a row scanner function.
func scanPlan(scan func(dest ...any) error) (domain.Plan, error) {
	var p domain.Plan
	var date, createdAt string
	sections := make([]string, len(domain.Sections))

	dest := []any{&p.ID, &p.Owner, &p.Title, &date, &p.ClassLevel, &p.Subject, &p.CurriculumTopic, &p.DurationMinutes}
	for i := range sections {
		dest = append(dest, &sections[i])
	}
	dest = append(dest, &createdAt)

	if err := scan(dest...); err != nil {
		return domain.Plan{}, err
	}

	p.Date, _ = time.Parse(domain.DateLayout, date)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.Sections = make(map[string]string, len(sections))
	for i, key := range domain.SectionKeys() {
		if sections[i] != "" {
			p.Sections[key] = sections[i]
		}
	}
	return p, nil
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
