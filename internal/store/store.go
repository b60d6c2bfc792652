// Package store provides SQLite-backed persistence for taskbeat.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/taskbeat/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = fmt.Errorf("not found")

// Store provides access to the taskbeat SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		priority TEXT NOT NULL DEFAULT 'medium',
		category_id TEXT,
		tags TEXT,
		due_date DATETIME,
		recurrence_type TEXT NOT NULL DEFAULT 'none',
		recurrence_interval INTEGER NOT NULL DEFAULT 0,
		recurrence_end_date DATETIME,
		estimated_minutes INTEGER,
		actual_minutes INTEGER,
		is_archived INTEGER NOT NULL DEFAULT 0,
		completed_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		color TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (task_id) REFERENCES tasks(id)
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_category_id ON tasks(category_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed_at ON tasks(completed_at);
	CREATE INDEX IF NOT EXISTS idx_activity_task_id ON activity(task_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

const taskColumns = `id, title, description, status, priority, category_id, tags, due_date,
	recurrence_type, recurrence_interval, recurrence_end_date,
	estimated_minutes, actual_minutes, is_archived, completed_at, created_at, updated_at`

// --- Task Operations ---

// NewTask carries the caller-supplied fields of a task to create.
// Zero values fall back to defaults (priority medium, recurrence none).
type NewTask struct {
	Title              string
	Description        string
	Priority           models.TaskPriority
	CategoryID         string
	Tags               string
	DueDate            *time.Time
	RecurrenceType     models.RecurrenceType
	RecurrenceInterval int
	RecurrenceEndDate  *time.Time
	EstimatedMinutes   *int
}

// CreateTask inserts a new task with a generated ID.
func (s *Store) CreateTask(p NewTask) (*models.Task, error) {
	now := time.Now().UTC()

	if p.Priority == "" {
		p.Priority = models.PriorityMedium
	}
	if p.RecurrenceType == "" {
		p.RecurrenceType = models.RecurrenceNone
	}

	task := &models.Task{
		ID:                 uuid.New().String(),
		Title:              p.Title,
		Description:        p.Description,
		Status:             models.TaskStatusPending,
		Priority:           p.Priority,
		CategoryID:         p.CategoryID,
		Tags:               p.Tags,
		DueDate:            p.DueDate,
		RecurrenceType:     p.RecurrenceType,
		RecurrenceInterval: p.RecurrenceInterval,
		RecurrenceEndDate:  p.RecurrenceEndDate,
		EstimatedMinutes:   p.EstimatedMinutes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.InsertTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// InsertTask persists a fully-formed task, e.g. a generated occurrence.
func (s *Store) InsertTask(task *models.Task) error {
	_, err := s.db.Exec(
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.Status, task.Priority,
		nullString(task.CategoryID), nullString(task.Tags), nullTime(task.DueDate),
		task.RecurrenceType, task.RecurrenceInterval, nullTime(task.RecurrenceEndDate),
		nullInt(task.EstimatedMinutes), nullInt(task.ActualMinutes),
		task.IsArchived, nullTime(task.CompletedAt), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns nil, nil when not found.
func (s *Store) GetTask(id string) (*models.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// ListFilter narrows ListTasks results. Zero values mean "no filter".
type ListFilter struct {
	Status          models.TaskStatus
	Priority        models.TaskPriority
	CategoryID      string
	IncludeArchived bool
}

// ListTasks returns tasks matching the filter, newest first.
func (s *Store) ListTasks(f ListFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var conds []string
	var args []interface{}

	if !f.IncludeArchived {
		conds = append(conds, `is_archived = 0`)
	}
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		conds = append(conds, `priority = ?`)
		args = append(args, f.Priority)
	}
	if f.CategoryID != "" {
		conds = append(conds, `category_id = ?`)
		args = append(args, f.CategoryID)
	}

	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// UpdateTask applies a partial update to a task and returns the result.
// The full row is rewritten inside a transaction so copy-with-changes
// semantics hold even for clears.
func (s *Store) UpdateTask(id string, update models.TaskUpdate) (*models.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	current, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}

	updated := update.Apply(*current, time.Now().UTC())

	_, err = tx.Exec(
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, category_id = ?, tags = ?,
		 due_date = ?, recurrence_type = ?, recurrence_interval = ?, recurrence_end_date = ?,
		 estimated_minutes = ?, actual_minutes = ?, is_archived = ?, completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		updated.Title, updated.Description, updated.Status, updated.Priority,
		nullString(updated.CategoryID), nullString(updated.Tags), nullTime(updated.DueDate),
		updated.RecurrenceType, updated.RecurrenceInterval, nullTime(updated.RecurrenceEndDate),
		nullInt(updated.EstimatedMinutes), nullInt(updated.ActualMinutes),
		updated.IsArchived, nullTime(updated.CompletedAt), updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &updated, nil
}

// DeleteTask removes a task and its activity log.
func (s *Store) DeleteTask(id string) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	_, err = s.db.Exec(`DELETE FROM activity WHERE task_id = ?`, id)
	return err
}

// ArchiveTask marks a task archived or unarchived.
func (s *Store) ArchiveTask(id string, archived bool) error {
	res, err := s.db.Exec(
		`UPDATE tasks SET is_archived = ?, updated_at = ? WHERE id = ?`,
		archived, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("archive task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Category Operations ---

// CreateCategory inserts a new category.
func (s *Store) CreateCategory(name, color string) (*models.Category, error) {
	cat := &models.Category{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO categories (id, name, color, created_at) VALUES (?, ?, ?, ?)`,
		cat.ID, cat.Name, nullString(cat.Color), cat.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return cat, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories() ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT id, name, color, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var cat models.Category
		var color sql.NullString
		if err := rows.Scan(&cat.ID, &cat.Name, &color, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if color.Valid {
			cat.Color = color.String
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

// DeleteCategory removes a category and detaches its tasks.
func (s *Store) DeleteCategory(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE tasks SET category_id = NULL WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("detach tasks: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return tx.Commit()
}

// --- Activity Operations ---

// AddActivity records a task event.
func (s *Store) AddActivity(taskID, action, details string) (*models.ActivityEntry, error) {
	entry := &models.ActivityEntry{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO activity (id, task_id, action, details, timestamp) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.TaskID, entry.Action, nullString(entry.Details), entry.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return entry, nil
}

// GetActivityForTask returns the events for a task, newest first.
func (s *Store) GetActivityForTask(taskID string) ([]models.ActivityEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, action, details, timestamp FROM activity WHERE task_id = ? ORDER BY timestamp DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Action, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if details.Valid {
			e.Details = details.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Scan Helpers ---

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var description, categoryID, tags sql.NullString
	var dueDate, recurrenceEnd, completedAt sql.NullTime
	var estimated, actual sql.NullInt64

	err := row.Scan(
		&task.ID, &task.Title, &description, &task.Status, &task.Priority,
		&categoryID, &tags, &dueDate,
		&task.RecurrenceType, &task.RecurrenceInterval, &recurrenceEnd,
		&estimated, &actual, &task.IsArchived, &completedAt,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = description.String
	}
	if categoryID.Valid {
		task.CategoryID = categoryID.String
	}
	if tags.Valid {
		task.Tags = tags.String
	}
	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	if recurrenceEnd.Valid {
		t := recurrenceEnd.Time
		task.RecurrenceEndDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	if estimated.Valid {
		m := int(estimated.Int64)
		task.EstimatedMinutes = &m
	}
	if actual.Valid {
		m := int(actual.Int64)
		task.ActualMinutes = &m
	}
	return &task, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
