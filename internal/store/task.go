package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mweber/pettrack/internal/model"
	"github.com/mweber/pettrack/internal/task"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var assignedTo sql.NullInt64
	var days string

	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.PetID, &assignedTo,
		&t.Title, &t.Description, &t.Category, &t.Time, &days,
		&t.Priority, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.Int64
	}
	parsed, err := task.ParseDays(days)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", t.ID, err)
	}
	t.DaysOfWeek = parsed
	return &t, nil
}

const taskCols = `id, household_id, pet_id, assigned_to, title, description, category, time, days_of_week, priority, is_active, created_at, updated_at`

func (s *TaskStore) Create(householdID, petID int64, assignedTo *int64, title, description, category, timeOfDay string, days []int, priority string) (*model.Task, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (household_id, pet_id, assigned_to, title, description, category, time, days_of_week, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, petID, aTo, title, description, category, timeOfDay, task.FormatDays(days), priority,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) Update(id int64, petID int64, assignedTo *int64, title, description, category, timeOfDay string, days []int, priority string, isActive bool) (*model.Task, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET pet_id = ?, assigned_to = ?, title = ?, description = ?, category = ?, time = ?, days_of_week = ?, priority = ?, is_active = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		petID, aTo, title, description, category, timeOfDay, task.FormatDays(days), priority, isActive, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a template. Its completion rows cascade away with it.
func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) ListByHousehold(householdID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE household_id = ? ORDER BY time ASC, title ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListForDate returns active templates due on the given date, each annotated
// with whether a completion row exists for that exact calendar day. Sorted
// by time ascending; zero-padded HH:MM makes the string sort correct.
func (s *TaskStore) ListForDate(householdID int64, date time.Time, petID, assignedTo *int64) ([]model.TaskWithCompletion, error) {
	query := `SELECT ` + prefixCols("t", taskCols) + `, c.id IS NOT NULL
	 FROM tasks t
	 LEFT JOIN task_completions c ON c.task_id = t.id AND c.date = ?
	 WHERE t.household_id = ? AND t.is_active = 1`
	args := []any{task.DateKey(date), householdID}

	if petID != nil {
		query += ` AND t.pet_id = ?`
		args = append(args, *petID)
	}
	if assignedTo != nil {
		query += ` AND t.assigned_to = ?`
		args = append(args, *assignedTo)
	}
	query += ` ORDER BY t.time ASC, t.title ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks for date: %w", err)
	}
	defer rows.Close()

	var out []model.TaskWithCompletion
	for rows.Next() {
		var tw model.TaskWithCompletion
		var assigned sql.NullInt64
		var days string
		if err := rows.Scan(
			&tw.ID, &tw.HouseholdID, &tw.PetID, &assigned,
			&tw.Title, &tw.Description, &tw.Category, &tw.Time, &days,
			&tw.Priority, &tw.IsActive, &tw.CreatedAt, &tw.UpdatedAt,
			&tw.IsCompleted,
		); err != nil {
			return nil, fmt.Errorf("scan task for date: %w", err)
		}
		if assigned.Valid {
			tw.AssignedTo = &assigned.Int64
		}
		parsed, err := task.ParseDays(days)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", tw.ID, err)
		}
		tw.DaysOfWeek = parsed

		if task.IsDueOn(tw.DaysOfWeek, date) {
			out = append(out, tw)
		}
	}
	return out, rows.Err()
}

// SetCompletion marks or unmarks a task done on a calendar day. Both
// directions are idempotent: the duplicate insert is swallowed by the
// (task_id, date) unique index, and deleting an absent row is a no-op.
func (s *TaskStore) SetCompletion(taskID int64, date time.Time, completedBy int64, completed bool) error {
	key := task.DateKey(date)

	if completed {
		_, err := s.db.Exec(
			`INSERT INTO task_completions (task_id, date, completed_by) VALUES (?, ?, ?)
			 ON CONFLICT (task_id, date) DO NOTHING`,
			taskID, key, completedBy,
		)
		if err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
		return nil
	}

	_, err := s.db.Exec(
		`DELETE FROM task_completions WHERE task_id = ? AND date = ?`,
		taskID, key,
	)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

// GetCompletion returns the completion row for (task, day), or nil.
func (s *TaskStore) GetCompletion(taskID int64, date time.Time) (*model.TaskCompletion, error) {
	row := s.db.QueryRow(
		`SELECT id, task_id, date, completed_by, completed_at FROM task_completions WHERE task_id = ? AND date = ?`,
		taskID, task.DateKey(date),
	)

	var c model.TaskCompletion
	var completedBy sql.NullInt64
	err := row.Scan(&c.ID, &c.TaskID, &c.Date, &completedBy, &c.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	if completedBy.Valid {
		c.CompletedBy = &completedBy.Int64
	}
	return &c, nil
}

// prefixCols qualifies a comma-separated column list with a table alias.
func prefixCols(alias, cols string) string {
	out := alias + "." + cols
	for i := 0; i < len(out); i++ {
		if out[i] == ',' {
			out = out[:i+2] + alias + "." + out[i+2:]
			i += len(alias) + 2
		}
	}
	return out
}
