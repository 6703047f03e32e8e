package service

import (
	"context"
	"errors"

	"lavka/internal/domain"
	"lavka/internal/events"
	"lavka/internal/models"

	"github.com/rs/zerolog"
)

var ErrNoAdmins = errors.New("no admins available")

type DialogService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewDialogService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *DialogService {
	return &DialogService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// LeastLoadedAdmin выбирает админа с наименьшим числом непрочитанных
// диалогов. При равенстве побеждает первый в списке.
func (s *DialogService) LeastLoadedAdmin(ctx context.Context, admins []int64) (int64, error) {
	if len(admins) == 0 {
		return 0, ErrNoAdmins
	}

	best := admins[0]
	bestCount, err := s.repo.CountDialogsForAdmin(ctx, best)
	if err != nil {
		return 0, err
	}

	for _, adminID := range admins[1:] {
		count, err := s.repo.CountDialogsForAdmin(ctx, adminID)
		if err != nil {
			return 0, err
		}
		if count < bestCount {
			best = adminID
			bestCount = count
		}
	}
	return best, nil
}

// StartDialog открывает диалог клиента с админом или возвращает уже
// существующий между этой парой.
func (s *DialogService) StartDialog(ctx context.Context, userID, adminID int64) (*models.Dialog, error) {
	dialog, err := s.repo.CreateDialog(ctx, userID, adminID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Int64("admin_id", adminID).Msg("start dialog error")
		return nil, err
	}
	return dialog, nil
}

// RecordMessage сохраняет сообщение диалога. Сообщение клиента публикуется
// на шину событий для подписчиков вроде журнала обращений.
func (s *DialogService) RecordMessage(ctx context.Context, dialogID, senderID int64, content string) (*models.Message, error) {
	message, err := s.repo.AddDialogMessage(ctx, dialogID, senderID, content)
	if err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		dialog, err := s.repo.GetDialog(ctx, dialogID)
		if err == nil && senderID == dialog.User1ID {
			payload := events.DialogEventPayload{
				DialogID: dialogID,
				SenderID: senderID,
				AdminID:  dialog.User2ID,
				Content:  content,
			}
			if err := s.eventBus.PublishJSON(events.EventDialogMessage, payload); err != nil {
				s.logger.Error().Err(err).Int64("dialog_id", dialogID).Msg("publish dialog event error")
			}
		}
	}
	return message, nil
}

// UnreadDialogs возвращает страницу входящих обращений админа.
func (s *DialogService) UnreadDialogs(ctx context.Context, adminID int64, limit, offset int) ([]models.Dialog, error) {
	if limit <= 0 {
		limit = models.DefaultAppealsPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetUnreadDialogs(ctx, adminID, limit, offset)
}

func (s *DialogService) Dialog(ctx context.Context, id int64) (*models.Dialog, error) {
	return s.repo.GetDialog(ctx, id)
}

func (s *DialogService) History(ctx context.Context, dialogID int64) ([]models.Message, error) {
	return s.repo.GetDialogMessages(ctx, dialogID)
}
