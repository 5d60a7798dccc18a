package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/pkg/log"
)

// ScheduleInput — встреча группы.
type ScheduleInput struct {
	Day      string `validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Time     string `validate:"required,clock"`
	Reminder bool
}

// CreateGroupInput — данные новой группы чтения.
type CreateGroupInput struct {
	Name     string          `validate:"required,max=100"`
	BookID   string          `field:"bookId" validate:"required"`
	Schedule []ScheduleInput `validate:"omitempty,max=14,dive"`
}

// CreateGroup создаёт группу; создатель становится владельцем и участником.
func (s *Service) CreateGroup(ctx context.Context, p models.Principal, in CreateGroupInput) (*models.ReadingGroup, error) {
	const op = "service.groups.CreateGroup"

	in.Name = strings.TrimSpace(in.Name)
	for i := range in.Schedule {
		in.Schedule[i].Day = strings.ToLower(strings.TrimSpace(in.Schedule[i].Day))
	}

	if err := validateStruct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.BookByID(ctx, in.BookID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	schedule := make([]models.ScheduleEntry, 0, len(in.Schedule))
	for _, e := range in.Schedule {
		schedule = append(schedule, models.ScheduleEntry{Day: e.Day, Time: e.Time, Reminder: e.Reminder})
	}

	now := s.now()
	group := &models.ReadingGroup{
		ID:        uuid.NewString(),
		Name:      in.Name,
		BookID:    in.BookID,
		OwnerID:   p.UserID,
		Members:   []string{p.UserID},
		Schedule:  schedule,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	log.From(ctx).Info("group_created",
		slog.String("group_id", group.ID),
		slog.String("user_id", p.UserID),
	)

	return group, nil
}

// GroupByID возвращает группу.
func (s *Service) GroupByID(ctx context.Context, id string) (*models.ReadingGroup, error) {
	const op = "service.groups.GroupByID"

	g, err := s.storage.GroupByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return g, nil
}

// MyGroups возвращает группы, в которых состоит субъект.
func (s *Service) MyGroups(ctx context.Context, p models.Principal) ([]models.ReadingGroup, error) {
	const op = "service.groups.MyGroups"

	groups, err := s.storage.GroupsByMember(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return groups, nil
}

// JoinGroup добавляет субъекта в группу; повторное вступление ничего не меняет.
func (s *Service) JoinGroup(ctx context.Context, p models.Principal, id string) (*models.ReadingGroup, error) {
	const op = "service.groups.JoinGroup"

	g, err := s.storage.AddMember(ctx, id, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return g, nil
}

// LeaveGroup исключает субъекта из группы. Владелец выйти не может:
// группу нужно удалить.
func (s *Service) LeaveGroup(ctx context.Context, p models.Principal, id string) (*models.ReadingGroup, error) {
	const op = "service.groups.LeaveGroup"

	g, err := s.storage.GroupByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	if g.OwnerID == p.UserID {
		return nil, fmt.Errorf("%s: %w", op, invalidField("group", "owner cannot leave the group, delete it instead"))
	}

	if !g.HasMember(p.UserID) {
		return g, nil
	}

	out, err := s.storage.RemoveMember(ctx, id, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return out, nil
}

// DeleteGroup удаляет группу; разрешено владельцу и администратору.
func (s *Service) DeleteGroup(ctx context.Context, p models.Principal, id string) error {
	const op = "service.groups.DeleteGroup"

	g, err := s.storage.GroupByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	if g.OwnerID != p.UserID && !p.IsAdmin() {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.storage.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return nil
}
