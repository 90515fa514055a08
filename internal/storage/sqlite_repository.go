package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/slotd/internal/model"
)

const (
	sqliteTimeLayout = time.RFC3339Nano
	// maxInArgs keeps IN lists well under SQLite's bound variable limit.
	maxInArgs = 500
)

const templateColumns = `id, user_id, title, description, priority, is_recurring, recurring_days,
	start_date, end_date, start_time, end_time, is_schedulable, completed, created_at, updated_at, deleted_at`

const overrideColumns = `o.id, o.parent_template_id, o.instance_date, o.title, o.description,
	o.start_time, o.end_time, o.priority, o.completed, o.created_at, o.updated_at`

// dbtx is what *sql.DB and *sql.Tx share.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteRepository struct {
	db  *sql.DB
	q   dbtx
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, q: db, now: time.Now}, nil
}

// OpenSQLite opens path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps PRAGMA foreign_keys in effect for every statement
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// WithTx runs fn on a repository bound to one transaction. The transaction
// commits when fn returns nil and rolls back otherwise. Nested calls join the
// outer transaction.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	if _, nested := r.q.(*sql.Tx); nested {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	if err := fn(&SQLiteRepository{db: r.db, q: tx, now: r.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("storage: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

// CreateTemplate validates and inserts in, assigning an id and timestamps when missing.
func (r *SQLiteRepository) CreateTemplate(ctx context.Context, in Template) (Template, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Template{}, errors.New("storage: template user_id is required")
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if err := validateTemplate(in); err != nil {
		return Template{}, err
	}
	now := r.now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO task_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.Title, in.Description, in.Priority, boolInt(in.IsRecurring), in.RecurringDays,
		nullString(in.StartDate), nullString(in.EndDate), nullString(in.StartTime), nullString(in.EndTime),
		boolInt(in.IsSchedulable), boolInt(in.Completed), mustTime(in.CreatedAt), mustTime(in.UpdatedAt), nullTime(in.DeletedAt),
	)
	if err != nil {
		return Template{}, err
	}
	return in, nil
}

func (r *SQLiteRepository) GetTemplate(ctx context.Context, id string) (Template, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM task_templates WHERE id = ?`, id)
	item, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateTemplate(ctx context.Context, in Template) error {
	if err := validateTemplate(in); err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `
		UPDATE task_templates
		SET title = ?, description = ?, priority = ?, is_recurring = ?, recurring_days = ?,
			start_date = ?, end_date = ?, start_time = ?, end_time = ?, is_schedulable = ?, completed = ?, updated_at = ?
		WHERE id = ?`,
		in.Title, in.Description, in.Priority, boolInt(in.IsRecurring), in.RecurringDays,
		nullString(in.StartDate), nullString(in.EndDate), nullString(in.StartTime), nullString(in.EndTime),
		boolInt(in.IsSchedulable), boolInt(in.Completed), mustTime(r.now()), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

// SoftDeleteTemplate hides the template from every schedule listing.
func (r *SQLiteRepository) SoftDeleteTemplate(ctx context.Context, id string) error {
	now := mustTime(r.now())
	res, err := r.q.ExecContext(ctx, `
		UPDATE task_templates SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

// DeleteTemplate removes the row and, by cascade, its overrides.
func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM task_templates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context, filter TemplateListFilter) ([]Template, error) {
	query := `SELECT ` + templateColumns + ` FROM task_templates`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Recurring != nil {
		clauses = append(clauses, "is_recurring = ?")
		args = append(args, boolInt(*filter.Recurring))
	}
	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)
	return r.queryTemplates(ctx, query, args...)
}

// ListNonRecurringSchedulable returns the live one-off templates of userID whose
// own date (start_date, else end_date) falls in [from, to].
func (r *SQLiteRepository) ListNonRecurringSchedulable(ctx context.Context, userID string, from, to model.Date) ([]model.TaskTemplate, error) {
	rows, err := r.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM task_templates
		WHERE user_id = ? AND is_recurring = 0 AND is_schedulable = 1 AND deleted_at IS NULL
			AND COALESCE(start_date, end_date) BETWEEN ? AND ?
		ORDER BY id ASC`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	return templatesToModel(rows)
}

// ListRecurringSchedulable returns every live recurring template of userID; date
// bounds are applied by expansion.
func (r *SQLiteRepository) ListRecurringSchedulable(ctx context.Context, userID string) ([]model.TaskTemplate, error) {
	rows, err := r.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM task_templates
		WHERE user_id = ? AND is_recurring = 1 AND is_schedulable = 1 AND deleted_at IS NULL
		ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	return templatesToModel(rows)
}

// ListOverrides returns the overrides on userID's templates for the given dates.
func (r *SQLiteRepository) ListOverrides(ctx context.Context, userID string, instanceDates []string) ([]model.Override, error) {
	out := make([]model.Override, 0)
	for start := 0; start < len(instanceDates); start += maxInArgs {
		end := start + maxInArgs
		if end > len(instanceDates) {
			end = len(instanceDates)
		}
		chunk := instanceDates[start:end]
		args := make([]any, 0, len(chunk)+1)
		args = append(args, userID)
		for _, d := range chunk {
			args = append(args, d)
		}
		rows, err := r.queryOverrides(ctx, `
			SELECT `+overrideColumns+`
			FROM task_overrides o
			JOIN task_templates t ON t.id = o.parent_template_id
			WHERE t.user_id = ? AND o.instance_date IN (`+placeholders(len(chunk))+`)
			ORDER BY o.parent_template_id ASC, o.instance_date ASC`, args...)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			m, err := row.ToModel()
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}
	return out, nil
}

// UpsertOverride stores the single override of (parent_template_id, instance_date),
// replacing its fields when one exists. The template itself is never touched.
func (r *SQLiteRepository) UpsertOverride(ctx context.Context, in Override) (Override, error) {
	m, err := in.ToModel()
	if err != nil {
		return Override{}, err
	}
	if err := m.Validate(); err != nil {
		return Override{}, err
	}
	parent, err := r.GetTemplate(ctx, in.ParentTemplateID)
	if err != nil {
		return Override{}, err
	}
	if !parent.IsRecurring {
		return Override{}, fmt.Errorf("%w: %s", ErrNotRecurring, parent.ID)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	now := mustTime(r.now())
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO task_overrides (id, parent_template_id, instance_date, title, description, start_time, end_time, priority, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (parent_template_id, instance_date) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			priority = excluded.priority,
			completed = excluded.completed,
			updated_at = excluded.updated_at`,
		in.ID, in.ParentTemplateID, in.InstanceDate, nullStringPtr(in.Title), nullStringPtr(in.Description),
		nullStringPtr(in.StartTime), nullStringPtr(in.EndTime), nullStringPtr(in.Priority), nullBool(in.Completed), now, now,
	)
	if err != nil {
		return Override{}, err
	}
	return r.GetOverride(ctx, in.ParentTemplateID, in.InstanceDate)
}

func (r *SQLiteRepository) GetOverride(ctx context.Context, templateID, instanceDate string) (Override, error) {
	rows, err := r.queryOverrides(ctx, `
		SELECT `+overrideColumns+` FROM task_overrides o
		WHERE o.parent_template_id = ? AND o.instance_date = ?`, templateID, instanceDate)
	if err != nil {
		return Override{}, err
	}
	if len(rows) == 0 {
		return Override{}, ErrNotFound
	}
	return rows[0], nil
}

func (r *SQLiteRepository) DeleteOverride(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM task_overrides WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTemplateOverrides(ctx context.Context, templateID string) ([]Override, error) {
	return r.queryOverrides(ctx, `
		SELECT `+overrideColumns+` FROM task_overrides o
		WHERE o.parent_template_id = ?
		ORDER BY o.instance_date ASC`, templateID)
}

func (r *SQLiteRepository) queryTemplates(ctx context.Context, query string, args ...any) ([]Template, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Template, 0)
	for rows.Next() {
		item, scanErr := scanTemplate(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) queryOverrides(ctx context.Context, query string, args ...any) ([]Override, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Override, 0)
	for rows.Next() {
		item, scanErr := scanOverride(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func templatesToModel(rows []Template) ([]model.TaskTemplate, error) {
	out := make([]model.TaskTemplate, 0, len(rows))
	for _, row := range rows {
		m, err := row.ToModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func validateTemplate(in Template) error {
	m, err := in.ToModel()
	if err != nil {
		return err
	}
	return m.Validate()
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	return boolInt(*v)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(s scanner) (Template, error) {
	var out Template
	var recurring, schedulable, completed int
	var startDate, endDate, startTime, endTime sql.NullString
	var created, updated string
	var deleted sql.NullString
	if err := s.Scan(&out.ID, &out.UserID, &out.Title, &out.Description, &out.Priority, &recurring, &out.RecurringDays,
		&startDate, &endDate, &startTime, &endTime, &schedulable, &completed, &created, &updated, &deleted); err != nil {
		return Template{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Template{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Template{}, err
	}
	deletedAt, err := parseNullableTime(deleted)
	if err != nil {
		return Template{}, err
	}
	out.IsRecurring = recurring == 1
	out.IsSchedulable = schedulable == 1
	out.Completed = completed == 1
	out.StartDate = startDate.String
	out.EndDate = endDate.String
	out.StartTime = startTime.String
	out.EndTime = endTime.String
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	out.DeletedAt = deletedAt
	return out, nil
}

func scanOverride(s scanner) (Override, error) {
	var out Override
	var title, description, startTime, endTime, priority sql.NullString
	var completed sql.NullInt64
	var created, updated string
	if err := s.Scan(&out.ID, &out.ParentTemplateID, &out.InstanceDate, &title, &description,
		&startTime, &endTime, &priority, &completed, &created, &updated); err != nil {
		return Override{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Override{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Override{}, err
	}
	out.Title = stringPtr(title)
	out.Description = stringPtr(description)
	out.StartTime = stringPtr(startTime)
	out.EndTime = stringPtr(endTime)
	out.Priority = stringPtr(priority)
	if completed.Valid {
		v := completed.Int64 == 1
		out.Completed = &v
	}
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
