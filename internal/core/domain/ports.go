package domain

import (
	"context"

	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller a service acts on behalf of.
type Actor struct {
	UserID primitive.ObjectID
	Email  string
	Role   models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// Notifier sends the transactional emails the services trigger.
// The service layer depends on this interface, not on the mail transport.
type Notifier interface {
	SendOTP(ctx context.Context, user models.User, otp string) error
	SendPasswordReset(ctx context.Context, user models.User, link string) error
	SendAccountStatus(ctx context.Context, user models.User) error
	SendRoleChanged(ctx context.Context, user models.User) error
	SendOrderConfirmation(ctx context.Context, order models.Checkout) error
	SendOrderStatus(ctx context.Context, order models.Checkout) error
}

// FileRemover deletes previously stored uploads. Failures are not reported.
type FileRemover interface {
	Remove(paths ...string)
}
