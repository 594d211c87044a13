package users

import (
	"context"
	"errors"
	"log/slog"

	"vibeshop.com/app/internal/shared/apperr"
)

var (
	ErrSelfDemote = apperr.ConflictErr("자기 자신의 관리자 권한은 해제할 수 없습니다.")
	ErrSelfDelete = apperr.ConflictErr("자기 자신은 삭제할 수 없습니다.")
)

// AccountRemover deletes identity data (credentials, sessions) for a user.
type AccountRemover interface {
	RemoveAccount(ctx context.Context, userID string) error
}

type Service struct {
	repo    *Repo
	remover AccountRemover
	logger  *slog.Logger
}

func NewService(repo *Repo, remover AccountRemover, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, remover: remover, logger: logger}
}

func (s *Service) Repo() *Repo { return s.repo }

// ToggleRole flips a user between user and admin. An admin cannot remove
// their own admin role.
func (s *Service) ToggleRole(ctx context.Context, actorID string, u User) (string, error) {
	next := RoleAdmin
	if u.Role == RoleAdmin {
		if u.ID == actorID {
			return "", ErrSelfDemote
		}
		next = RoleUser
	}
	if err := s.repo.SetRole(ctx, u.ID, next); err != nil {
		return "", s.mapErr(err)
	}
	s.logger.InfoContext(ctx, "user_role_changed", "user_id", u.ID, "actor_id", actorID, "role", next)
	if next == RoleAdmin {
		return u.Name + "님에게 관리자 권한을 부여했습니다.", nil
	}
	return u.Name + "님을 일반회원으로 변경했습니다.", nil
}

// Delete removes the profile together with the identity data.
func (s *Service) Delete(ctx context.Context, actorID string, u User) (string, error) {
	if u.ID == actorID {
		return "", ErrSelfDelete
	}
	if s.remover != nil {
		if err := s.remover.RemoveAccount(ctx, u.ID); err != nil {
			return "", apperr.Wrap(err)
		}
	}
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return "", apperr.Wrap(err)
	}
	s.logger.InfoContext(ctx, "user_deleted", "user_id", u.ID, "actor_id", actorID)
	return "사용자가 삭제되었습니다.", nil
}

// GrantAdmin promotes the user with the given email.
func (s *Service) GrantAdmin(ctx context.Context, email string) (User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, s.mapErr(err)
	}
	if err := s.repo.SetRole(ctx, u.ID, RoleAdmin); err != nil {
		return User{}, s.mapErr(err)
	}
	u.Role = RoleAdmin
	return u, nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFoundErr("사용자를 찾을 수 없습니다.").WithCause(err)
	}
	return apperr.Wrap(err)
}
