package service

import (
	"context"

	"lavka/internal/domain"
	"lavka/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserService) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.repo.CreateOrUpdateUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("telegram_id", user.TelegramID).Msg("save user error")
		return err
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.repo.GetUserByTelegramID(ctx, telegramID)
}
