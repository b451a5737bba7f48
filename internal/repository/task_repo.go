package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clan-manager/internal/model"
)

const taskColumns = `id, title, COALESCE(description, ''), status, priority, clan_id,
	COALESCE(assigned_to_id, ''), COALESCE(created_by_id, ''), progress, due_date, completed_at,
	created_at, updated_at`

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var status, priority string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &t.ClanID,
		&t.AssignedToID, &t.CreatedByID, &t.Progress, &t.DueDate, &t.CompletedAt,
		&t.CreatedAt, &t.UpdatedAt)
	t.Status = model.TaskStatus(status)
	t.Priority = model.TaskPriority(priority)
	return t, err
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, model.ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	add := func(clause string, value any) {
		where = append(where, fmt.Sprintf(clause, argIdx))
		args = append(args, value)
		argIdx++
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Priority != "" {
		add("priority = $%d", string(filter.Priority))
	}
	if filter.ClanID != "" {
		add("clan_id = $%d", filter.ClanID)
	}
	if filter.AssignedToID != "" {
		add("assigned_to_id = $%d", filter.AssignedToID)
	}
	if filter.DueDateBefore != nil {
		add("due_date < $%d", *filter.DueDateBefore)
	}
	if filter.DueDateAfter != nil {
		add("due_date > $%d", *filter.DueDateAfter)
	}
	if len(filter.ExcludeStatuses) > 0 {
		excluded := make([]string, 0, len(filter.ExcludeStatuses))
		for _, s := range filter.ExcludeStatuses {
			excluded = append(excluded, string(s))
		}
		add("NOT (status = ANY($%d))", excluded)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+kw+"%")
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	sql := fmt.Sprintf(`SELECT %s FROM tasks %s
		ORDER BY CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC,
		         due_date ASC NULLS LAST,
		         created_at DESC`, taskColumns, whereClause)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Create(ctx context.Context, t model.Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, title, description, status, priority, clan_id, assigned_to_id, created_by_id,
		                    progress, due_date, completed_at, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11, $12, $13)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.ClanID, t.AssignedToID, t.CreatedByID,
		t.Progress, t.DueDate, t.CompletedAt, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, t model.Task) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks
		 SET title = $2, description = NULLIF($3, ''), status = $4, priority = $5, clan_id = $6,
		     assigned_to_id = NULLIF($7, ''), progress = $8, due_date = $9, completed_at = $10, updated_at = $11
		 WHERE id = $1`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.ClanID,
		t.AssignedToID, t.Progress, t.DueDate, t.CompletedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}
