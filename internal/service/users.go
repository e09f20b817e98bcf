package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/log"
	"github.com/pribylovaa/gearguard/internal/storage"
)

// CurrentUser возвращает пользователя по ID из access-токена.
func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const op = "service.users.CurrentUser"

	if userID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	return user, nil
}

// ChangeRole меняет роль пользователя. Роль, отличная от TECHNICIAN,
// сбрасывает бригаду в том же обновлении.
func (s *Service) ChangeRole(ctx context.Context, userID uuid.UUID, role models.Role) (*models.User, error) {
	const op = "service.users.ChangeRole"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	if userID == uuid.Nil || !role.Valid() {
		lg.Warn("invalid_role", "role", string(role))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	user, err := s.storage.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	lg.Info("role_changed", "role", string(role))

	return user, nil
}

// AssignToTeam назначает техника в бригаду.
// Ошибки: ErrInvalidArgument - пользователь не TECHNICIAN; ErrNotFound - нет пользователя или бригады.
func (s *Service) AssignToTeam(ctx context.Context, userID, teamID uuid.UUID) (*models.User, error) {
	const op = "service.users.AssignToTeam"

	lg := log.From(ctx).With("op", op, "user_id", userID.String(), "team_id", teamID.String())

	if userID == uuid.Nil || teamID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	if user.Role != models.RoleTechnician {
		lg.Warn("assign_non_technician", "role", string(user.Role))
		return nil, fmt.Errorf("%s: only technicians join teams: %w", op, ErrInvalidArgument)
	}

	if _, err := s.storage.TeamByID(ctx, teamID); err != nil {
		return nil, fmt.Errorf("%s: team: %w", op, s.mapStorageErr(ctx, op, err))
	}

	user, err = s.storage.AssignTeam(ctx, userID, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	lg.Info("team_assigned")

	return user, nil
}

// CreateTeam создаёт бригаду с уникальным (без учёта регистра) именем.
func (s *Service) CreateTeam(ctx context.Context, name string) (*models.Team, error) {
	const op = "service.teams.CreateTeam"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: empty name: %w", op, ErrInvalidArgument)
	}

	team := &models.Team{ID: uuid.New(), Name: name, CreatedAt: s.now()}
	if err := s.storage.SaveTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	return team, nil
}

func (s *Service) ListTeams(ctx context.Context) ([]models.Team, error) {
	const op = "service.teams.ListTeams"

	teams, err := s.storage.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	return teams, nil
}

// mapStorageErr: storage.ErrNotFound -> ErrNotFound, storage.ErrAlreadyExists -> ErrAlreadyExists,
// прочее логируется и становится ErrInternal.
func (s *Service) mapStorageErr(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrAlreadyExists
	default:
		log.From(ctx).Error("storage_error", "op", op, "err", err)
		return ErrInternal
	}
}
