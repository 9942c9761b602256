package service

import (
	"context"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) Notify(ctx context.Context, userID string, typ domain.NotificationType, status string, amount domain.Kobo, message string) {
	n := &domain.Notification{
		UserID:    userID,
		Type:      typ,
		Status:    status,
		Amount:    amount,
		Message:   message,
		CreatedAt: now(),
	}
	if err := s.noteRepo.Create(ctx, n); err != nil {
		logger.Error("Failed to create notification", "user_id", userID, "type", typ, "status", status, "error", err)
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}
