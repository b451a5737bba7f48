package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clan-manager/internal/model"
	"clan-manager/pkg/apierror"
)

const DefaultUpcomingDays = 7

var closedTaskStatuses = []model.TaskStatus{model.TaskCompleted, model.TaskCanceled}

type TaskService struct {
	tasks TaskStore
	clans ClanStore
	users UserStore
	now   func() time.Time
}

func NewTaskService(tasks TaskStore, clans ClanStore, users UserStore) *TaskService {
	return &TaskService{
		tasks: tasks,
		clans: clans,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskService) Create(ctx context.Context, caller *model.AuthClaims, req model.CreateTaskRequest) (model.Task, error) {
	if err := requireCaller(caller); err != nil {
		return model.Task{}, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.Task{}, apierror.Validation("title is required", "title")
	}

	clanID, err := s.ownedClan(ctx, caller, strings.TrimSpace(req.ClanID))
	if err != nil {
		return model.Task{}, err
	}

	now := s.now()
	task := model.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      model.TaskPending,
		Priority:    model.PriorityMedium,
		ClanID:      clanID,
		CreatedByID: caller.UserID,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Priority != "" {
		if !req.Priority.Valid() {
			return model.Task{}, apierror.Validation("priority must be low, medium, high or urgent", "priority")
		}
		task.Priority = req.Priority
	}

	var status *model.TaskStatus
	if req.Status != "" {
		status = &req.Status
	}
	var progress *int
	if req.Progress != 0 {
		progress = &req.Progress
	}
	if err := applyProgress(&task, status, progress, now); err != nil {
		return model.Task{}, err
	}

	if assignee := strings.TrimSpace(req.AssignedToID); assignee != "" {
		if err := s.checkAssignee(ctx, assignee, task.ClanID); err != nil {
			return model.Task{}, err
		}
		task.AssignedToID = assignee
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return model.Task{}, err
	}
	slog.Info("task created", "task_id", task.ID, "clan_id", task.ClanID, "by", caller.UserID)
	return task, nil
}

// List applies the filter; callers other than super admins only ever see
// their own clan.
func (s *TaskService) List(ctx context.Context, caller *model.AuthClaims, filter model.TaskFilter) ([]model.Task, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !caller.IsSuperAdmin() {
		if caller.ClanID == "" {
			return nil, apierror.Forbidden("you are not a member of any clan")
		}
		filter.ClanID = caller.ClanID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apierror.Validation("unknown task status", string(filter.Status))
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apierror.Validation("unknown task priority", string(filter.Priority))
	}
	return s.tasks.List(ctx, filter)
}

func (s *TaskService) ListByClan(ctx context.Context, caller *model.AuthClaims, clanID string) ([]model.Task, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	scoped, err := scopeToCaller(caller, clanID)
	if err != nil {
		return nil, err
	}
	return s.tasks.List(ctx, model.TaskFilter{ClanID: scoped})
}

func (s *TaskService) Overdue(ctx context.Context, caller *model.AuthClaims) ([]model.Task, error) {
	now := s.now()
	return s.List(ctx, caller, model.TaskFilter{
		DueDateBefore:   &now,
		ExcludeStatuses: closedTaskStatuses,
	})
}

func (s *TaskService) Upcoming(ctx context.Context, caller *model.AuthClaims, days int) ([]model.Task, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	if days > 365 {
		return nil, apierror.Validation("days must be at most 365", "days")
	}
	now := s.now()
	until := now.AddDate(0, 0, days)
	return s.List(ctx, caller, model.TaskFilter{
		DueDateAfter:    &now,
		DueDateBefore:   &until,
		ExcludeStatuses: closedTaskStatuses,
	})
}

func (s *TaskService) Get(ctx context.Context, caller *model.AuthClaims, id string) (model.Task, error) {
	return s.scopedTask(ctx, caller, id)
}

// Update applies a partial update. Members may only change the progress of
// tasks assigned to them; any other field rejects the whole request.
func (s *TaskService) Update(ctx context.Context, caller *model.AuthClaims, id string, req model.UpdateTaskRequest) (model.Task, error) {
	task, err := s.scopedTask(ctx, caller, id)
	if err != nil {
		return model.Task{}, err
	}

	switch caller.Role {
	case model.RoleClanMember:
		if task.AssignedToID != caller.UserID {
			return model.Task{}, apierror.Forbidden("you can only update tasks assigned to you")
		}
		for _, field := range presentTaskFields(req) {
			if field != "progress" {
				return model.Task{}, apierror.Forbidden("members can only update task progress")
			}
		}
		if req.Progress == nil {
			return model.Task{}, apierror.Validation("progress is required", "progress")
		}
	case model.RoleClanLeader:
		if req.ClanID != nil && strings.TrimSpace(*req.ClanID) != task.ClanID {
			return model.Task{}, apierror.Forbidden("tasks cannot be moved to another clan")
		}
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return model.Task{}, apierror.Validation("title cannot be empty", "title")
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return model.Task{}, apierror.Validation("priority must be low, medium, high or urgent", "priority")
		}
		task.Priority = *req.Priority
	}
	if req.ClanID != nil && strings.TrimSpace(*req.ClanID) != task.ClanID {
		clan, err := s.clans.FindByID(ctx, strings.TrimSpace(*req.ClanID))
		if errors.Is(err, model.ErrClanNotFound) {
			return model.Task{}, apierror.BadRequest("clan does not exist", *req.ClanID)
		}
		if err != nil {
			return model.Task{}, err
		}
		task.ClanID = clan.ID
	}
	if req.AssignedToID != nil {
		task.AssignedToID = strings.TrimSpace(*req.AssignedToID)
	}
	if task.AssignedToID != "" && (req.AssignedToID != nil || req.ClanID != nil) {
		if err := s.checkAssignee(ctx, task.AssignedToID, task.ClanID); err != nil {
			return model.Task{}, err
		}
	}
	if hasTaskField(req, "dueDate") {
		task.DueDate = req.DueDate
	}

	if err := applyProgress(&task, req.Status, req.Progress, s.now()); err != nil {
		return model.Task{}, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return model.Task{}, err
	}
	return s.tasks.FindByID(ctx, task.ID)
}

func (s *TaskService) UpdateProgress(ctx context.Context, caller *model.AuthClaims, id string, progress int) (model.Task, error) {
	return s.Update(ctx, caller, id, model.UpdateTaskRequest{
		Progress: &progress,
		Fields:   []string{"progress"},
	})
}

func (s *TaskService) Delete(ctx context.Context, caller *model.AuthClaims, id string) error {
	task, err := s.scopedTask(ctx, caller, id)
	if err != nil {
		return err
	}
	if !caller.IsSuperAdmin() && !caller.IsLeaderOf(task.ClanID) {
		return apierror.Forbidden("only the clan leader can delete tasks")
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}
	slog.Info("task deleted", "task_id", task.ID, "by", caller.UserID)
	return nil
}

func (s *TaskService) scopedTask(ctx context.Context, caller *model.AuthClaims, id string) (model.Task, error) {
	if err := requireCaller(caller); err != nil {
		return model.Task{}, err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, model.ErrTaskNotFound) {
		return model.Task{}, apierror.NotFound("task not found", id)
	}
	if err != nil {
		return model.Task{}, err
	}
	if !caller.IsSuperAdmin() && (caller.ClanID == "" || caller.ClanID != task.ClanID) {
		return model.Task{}, apierror.Forbidden("you can only access tasks of your own clan")
	}
	return task, nil
}

// ownedClan resolves the clan a new task belongs to: the
// leader's own clan by default, any existing clan for super admins.
func (s *TaskService) ownedClan(ctx context.Context, caller *model.AuthClaims, requested string) (string, error) {
	if !caller.IsSuperAdmin() {
		if caller.Role != model.RoleClanLeader || caller.ClanID == "" {
			return "", apierror.Forbidden("only clan leaders can create tasks")
		}
		if requested != "" && requested != caller.ClanID {
			return "", apierror.Forbidden("you can only create tasks for your own clan")
		}
		requested = caller.ClanID
	}
	if requested == "" {
		return "", apierror.Validation("clanId is required", "clanId")
	}
	clan, err := s.clans.FindByID(ctx, requested)
	if errors.Is(err, model.ErrClanNotFound) {
		return "", apierror.BadRequest("clan does not exist", requested)
	}
	if err != nil {
		return "", err
	}
	return clan.ID, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, userID string, clanID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.BadRequest("assignee does not exist", userID)
	}
	if err != nil {
		return err
	}
	if user.ClanID != clanID {
		return apierror.Forbidden("tasks can only be assigned to members of the task's clan")
	}
	return nil
}

// applyProgress keeps status, progress and completion time consistent.
// An explicit status wins over a progress value sent in the same update.
func applyProgress(t *model.Task, status *model.TaskStatus, progress *int, now time.Time) error {
	if progress != nil {
		if *progress < 0 || *progress > 100 {
			return apierror.Validation("progress must be between 0 and 100", "progress")
		}
		t.Progress = *progress
	}
	if status != nil {
		if !status.Valid() {
			return apierror.Validation("status must be pending, in_progress, completed or canceled", "status")
		}
		t.Status = *status
	}

	switch {
	case status != nil && *status == model.TaskCompleted:
		t.Progress = 100
	case status != nil:
	case progress != nil && *progress == 100:
		t.Status = model.TaskCompleted
	case progress != nil && t.Status == model.TaskCompleted:
		t.Status = model.TaskInProgress
	}

	if t.Status == model.TaskCompleted {
		if t.CompletedAt == nil {
			stamp := now
			t.CompletedAt = &stamp
		}
	} else {
		t.CompletedAt = nil
	}
	return nil
}

func presentTaskFields(req model.UpdateTaskRequest) []string {
	if req.Fields != nil {
		return req.Fields
	}
	fields := make([]string, 0, 8)
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(req.Title != nil, "title")
	add(req.Description != nil, "description")
	add(req.Status != nil, "status")
	add(req.Priority != nil, "priority")
	add(req.ClanID != nil, "clanId")
	add(req.AssignedToID != nil, "assignedToId")
	add(req.Progress != nil, "progress")
	add(req.DueDate != nil, "dueDate")
	return fields
}

func hasTaskField(req model.UpdateTaskRequest, name string) bool {
	for _, f := range presentTaskFields(req) {
		if f == name {
			return true
		}
	}
	return false
}
