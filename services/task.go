package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// TaskService owns task CRUD. Every operation goes through the
// project-access choke-point before touching a task record, including
// operations keyed only by task id: the task's project_id is resolved
// first and the evaluator runs against that project.
type TaskService struct {
	Store    store.Store
	Projects *ProjectService
	Notifier *NotificationService
}

func NewTaskService(st store.Store, projects *ProjectService, notifier *NotificationService) *TaskService {
	return &TaskService{Store: st, Projects: projects, Notifier: notifier}
}

func (s *TaskService) ListTasks(ctx context.Context, identity authz.Identity, projectID string) ([]db.Task, error) {
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, projectID); err != nil {
		return nil, err
	}
	recs, err := s.Store.Filter(ctx, db.KindTask, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := make([]db.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, db.TaskFromRecord(rec))
	}
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, identity authz.Identity, input db.Task) (db.Task, error) {
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, input.ProjectID); err != nil {
		return db.Task{}, err
	}
	if err := input.Validate(); err != nil {
		return db.Task{}, fmt.Errorf("%w: %v", authz.ErrValidation, err)
	}
	if input.Status == "" {
		input.Status = "not_started"
	}
	rec, err := s.Store.Create(ctx, db.KindTask, input.Fields())
	if err != nil {
		return db.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	task := db.TaskFromRecord(rec)

	if s.Notifier != nil && task.AssignedTo != "" && task.AssignedTo != identity.Email {
		s.Notifier.Notify(ctx, task.AssignedTo, task.ProjectID,
			"Task assigned", fmt.Sprintf("%s assigned you %q", identity.Email, task.Title))
	}
	return task, nil
}

// UpdateTaskInput carries optional field updates.
type UpdateTaskInput struct {
	Title           *string  `json:"title,omitempty"`
	Status          *string  `json:"status,omitempty"`
	AssignedTo      *string  `json:"assigned_to,omitempty"`
	StartDate       *string  `json:"start_date,omitempty"`
	EndDate         *string  `json:"end_date,omitempty"`
	PercentComplete *float64 `json:"percent_complete,omitempty"`
	CostCodeID      *string  `json:"cost_code_id,omitempty"`
}

// UpdateTask applies a partial update. Schedule-affecting changes
// (dates, percent complete) are written through to the
// ScheduleAuditLog kind for the schedule history view.
func (s *TaskService) UpdateTask(ctx context.Context, identity authz.Identity, taskID string, input UpdateTaskInput) (db.Task, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return db.Task{}, err
	}
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, task.ProjectID); err != nil {
		return db.Task{}, err
	}

	var changes []db.ScheduleAuditLog
	logChange := func(field, oldVal, newVal string) {
		if oldVal == newVal {
			return
		}
		changes = append(changes, db.ScheduleAuditLog{
			ProjectID: task.ProjectID,
			TaskID:    task.ID,
			Field:     field,
			OldValue:  oldVal,
			NewValue:  newVal,
			ChangedBy: identity.Email,
		})
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.AssignedTo != nil {
		task.AssignedTo = *input.AssignedTo
	}
	if input.StartDate != nil {
		logChange("start_date", task.StartDate, *input.StartDate)
		task.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		logChange("end_date", task.EndDate, *input.EndDate)
		task.EndDate = *input.EndDate
	}
	if input.PercentComplete != nil {
		logChange("percent_complete",
			strconv.FormatFloat(task.PercentComplete, 'f', -1, 64),
			strconv.FormatFloat(*input.PercentComplete, 'f', -1, 64))
		task.PercentComplete = *input.PercentComplete
	}
	if input.CostCodeID != nil {
		task.CostCodeID = *input.CostCodeID
	}
	if err := task.Validate(); err != nil {
		return db.Task{}, fmt.Errorf("%w: %v", authz.ErrValidation, err)
	}

	rec, err := s.Store.Update(ctx, db.KindTask, taskID, task.Fields())
	if errors.Is(err, store.ErrNotFound) {
		return db.Task{}, fmt.Errorf("%w: task %s", authz.ErrNotFound, taskID)
	}
	if err != nil {
		return db.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	// Schedule history is best-effort, same policy as the audit trail.
	for _, change := range changes {
		if _, err := s.Store.Create(ctx, db.KindScheduleAuditLog, change.Fields()); err != nil {
			log.Printf("Schedule audit entry for task %s (%s) failed: %v", taskID, change.Field, err)
		}
	}

	return db.TaskFromRecord(rec), nil
}

// DeleteTask removes one task after the access check on its project.
func (s *TaskService) DeleteTask(ctx context.Context, identity authz.Identity, taskID string) error {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, task.ProjectID); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, db.KindTask, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// ScheduleHistory returns the schedule audit trail for one task.
func (s *TaskService) ScheduleHistory(ctx context.Context, identity authz.Identity, taskID string) ([]db.ScheduleAuditLog, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, task.ProjectID); err != nil {
		return nil, err
	}
	recs, err := s.Store.Filter(ctx, db.KindScheduleAuditLog, map[string]any{"task_id": taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule history: %w", err)
	}
	out := make([]db.ScheduleAuditLog, 0, len(recs))
	for _, rec := range recs {
		out = append(out, db.ScheduleAuditLogFromRecord(rec))
	}
	return out, nil
}

func (s *TaskService) getTask(ctx context.Context, taskID string) (db.Task, error) {
	rec, err := store.Get(ctx, s.Store, db.KindTask, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return db.Task{}, fmt.Errorf("%w: task %s", authz.ErrNotFound, taskID)
	}
	if err != nil {
		return db.Task{}, fmt.Errorf("failed to fetch task: %w", err)
	}
	return db.TaskFromRecord(rec), nil
}
