package booking

import (
	"context"
	"strings"

	"bookwell/models"

	"go.uber.org/zap"
)

const maxReviewLength = 1000

// Rate stores the customer's rating of a completed booking and refreshes the
// rating aggregates of the provider and, for shop visits, the shop.
func (s *DefaultBookingService) Rate(ctx context.Context, actor Actor, publicID string, rating int, review string) (*models.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	review = strings.TrimSpace(review)
	if len(review) > maxReviewLength {
		return nil, invalid("review must be at most %d characters", maxReviewLength)
	}

	b, err := s.apply(ctx, publicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
		if actor.ID != b.CustomerID {
			return forbidden("only the customer may rate booking %s", b.PublicID)
		}
		if b.Status != models.StatusCompleted {
			return conflict(CodeNotRateable, "only completed bookings can be rated, booking is %s", b.Status)
		}
		if b.Rating > 0 {
			return conflict(CodeAlreadyRated, "booking %s has already been rated", b.PublicID)
		}
		now := s.now()
		b.Rating = rating
		b.Review = review
		b.RatedAt = &now
		return nil
	}, s.refreshRatings)
	if err != nil {
		return nil, err
	}
	s.logger().Info("booking rated", zap.String("bookingID", publicID), zap.Int("rating", rating))
	return b, nil
}

// refreshRatings recomputes the aggregates touched by a new rating on b.
func (s *DefaultBookingService) refreshRatings(ctx context.Context, b *models.Booking) error {
	summary, err := s.Bookings.ProviderRatingSummary(ctx, b.ProviderID)
	if err != nil {
		return dependency(err, "failed to aggregate ratings of provider %s", b.ProviderID)
	}
	if b.ProviderKind == models.KindShopOwner {
		err = s.Providers.UpdateShopOwnerRating(ctx, b.ProviderID, summary)
	} else {
		err = s.Providers.UpdateRating(ctx, b.ProviderID, summary)
	}
	if err != nil {
		return dependency(err, "failed to store rating of provider %s", b.ProviderID)
	}

	if b.ShopID == "" {
		return nil
	}
	shopSummary, err := s.Bookings.ShopRatingSummary(ctx, b.ShopID)
	if err != nil {
		return dependency(err, "failed to aggregate ratings of shop %s", b.ShopID)
	}
	if err := s.Providers.UpdateShopRating(ctx, b.ShopID, shopSummary); err != nil {
		return dependency(err, "failed to store rating of shop %s", b.ShopID)
	}
	return nil
}
