package notification

import (
	"context"
	"errors"
	"fmt"

	providerRepo "bookwell/database/repository/provider"
	recordsRepo "bookwell/database/repository/records"
	userRepo "bookwell/database/repository/user"
	"bookwell/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// NotificationService delivers booking notifications.
type NotificationService interface {
	Send(ctx context.Context, n models.NotificationIntent) error
}

// Pusher is the subset of the FCM messaging client used here.
type Pusher interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// ErrUnknownRecipient is returned when the recipient has no profile.
var ErrUnknownRecipient = errors.New("unknown notification recipient")

// DefaultNotificationService stores an in-app copy of every notification and
// pushes it to the recipient's device when a token is known.
type DefaultNotificationService struct {
	Providers providerRepo.ProviderRepository
	Customers userRepo.UserRepository
	Records   recordsRepo.NotificationRecordRepository
	Push      Pusher
	Logger    *zap.Logger
}

func (s *DefaultNotificationService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Send persists and pushes n. A recipient without a device token is not an
// error; the in-app copy is all they get.
func (s *DefaultNotificationService) Send(ctx context.Context, n models.NotificationIntent) error {
	log := s.logger().With(
		zap.String("recipientID", n.RecipientID),
		zap.String("role", string(n.Role)),
		zap.String("type", n.Type))

	record := &models.Notification{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Role:        n.Role,
		Type:        n.Type,
		Title:       n.Title,
		Body:        n.Body,
		Data:        map[string]any{"bookingId": n.BookingID},
	}
	id, err := s.Records.Create(ctx, record)
	if err != nil {
		return fmt.Errorf("Send: %w", err)
	}

	token, err := s.deviceToken(ctx, n.RecipientID, n.Role)
	if err != nil {
		if errors.Is(err, ErrUnknownRecipient) {
			log.Warn("notification recipient not found, skipping push")
			return nil
		}
		return fmt.Errorf("Send: %w", err)
	}
	if token == "" {
		log.Info("recipient has no FCM token, skipping push")
		return nil
	}

	msg := buildMessage(token, n)
	response, err := s.Push.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("Send: failed to send FCM message: %w", err)
	}
	if err := s.Records.MarkSent(ctx, id); err != nil {
		log.Warn("failed to mark notification sent", zap.Error(err))
	}
	log.Debug("push sent", zap.String("messageID", response))
	return nil
}

// deviceToken looks the FCM token up in the profile store of role.
func (s *DefaultNotificationService) deviceToken(ctx context.Context, id string, role models.RecipientRole) (string, error) {
	switch role {
	case models.RecipientCustomer:
		c, err := s.Customers.GetByID(ctx, id)
		if errors.Is(err, userRepo.ErrNotFound) {
			return "", ErrUnknownRecipient
		}
		if err != nil {
			return "", fmt.Errorf("could not load customer %s: %w", id, err)
		}
		return c.FCMToken, nil
	case models.RecipientProvider:
		p, err := s.Providers.GetByID(ctx, id)
		if errors.Is(err, providerRepo.ErrNotFound) {
			return "", ErrUnknownRecipient
		}
		if err != nil {
			return "", fmt.Errorf("could not load provider %s: %w", id, err)
		}
		return p.FCMToken, nil
	case models.RecipientShopOwner:
		o, err := s.Providers.GetShopOwner(ctx, id)
		if errors.Is(err, providerRepo.ErrNotFound) {
			return "", ErrUnknownRecipient
		}
		if err != nil {
			return "", fmt.Errorf("could not load shop owner %s: %w", id, err)
		}
		return o.FCMToken, nil
	default:
		return "", ErrUnknownRecipient
	}
}

func buildMessage(token string, n models.NotificationIntent) *messaging.Message {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{
			"type":      n.Type,
			"role":      string(n.Role),
			"bookingId": n.BookingID,
		},
	}
	if n.Role != models.RecipientCustomer {
		// Providers need to act quickly on requests.
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		}
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		}
	}
	return msg
}
