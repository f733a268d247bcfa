package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const recentOrders = 5

// Service holds the user management and dashboard operations of the admin area.
type Service struct {
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.CheckoutRepository
	notifier domain.Notifier
	now      func() time.Time
}

func NewService(users repository.UserRepository, products repository.ProductRepository, orders repository.CheckoutRepository, notifier domain.Notifier) *Service {
	return &Service{users: users, products: products, orders: orders, notifier: notifier, now: time.Now}
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.User{}, domain.NotFound("User")
		}
		return models.User{}, err
	}
	return user, nil
}

// ToggleUserStatus activates or deactivates a non-admin account and tells
// the user by email.
func (s *Service) ToggleUserStatus(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if user.IsAdmin() {
		return models.User{}, domain.Forbidden("Admin accounts cannot be deactivated")
	}

	user.IsActive = !user.IsActive
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, &user); err != nil {
		return models.User{}, err
	}

	logrus.WithFields(logrus.Fields{"user_id": id.Hex(), "active": user.IsActive}).Info("User status changed")
	if err := s.notifier.SendAccountStatus(ctx, user); err != nil {
		logrus.WithError(err).WithField("user_id", id.Hex()).Warn("Failed to send account status email")
	}
	return user, nil
}

func (s *Service) ChangeUserRole(ctx context.Context, actor domain.Actor, id primitive.ObjectID, role models.Role) (models.User, error) {
	if !role.Valid() {
		return models.User{}, domain.Validation("Role must be user or admin")
	}
	if id == actor.UserID {
		return models.User{}, domain.Validation("You cannot change your own role")
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if user.Role == role {
		return user, nil
	}

	user.Role = role
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, &user); err != nil {
		return models.User{}, err
	}

	logrus.WithFields(logrus.Fields{"user_id": id.Hex(), "role": role, "by": actor.UserID.Hex()}).Info("User role changed")
	if err := s.notifier.SendRoleChanged(ctx, user); err != nil {
		logrus.WithError(err).WithField("user_id", id.Hex()).Warn("Failed to send role change email")
	}
	return user, nil
}

func (s *Service) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	var err error

	if stats.TotalUsers, err = s.users.CountByRole(ctx, models.RoleUser); err != nil {
		return stats, err
	}
	if stats.TotalProducts, err = s.products.Count(ctx); err != nil {
		return stats, err
	}
	if stats.TotalOrders, err = s.orders.Count(ctx); err != nil {
		return stats, err
	}
	if stats.TotalRevenue, err = s.orders.Revenue(ctx); err != nil {
		return stats, err
	}
	if stats.RecentOrders, err = s.orders.Recent(ctx, recentOrders); err != nil {
		return stats, err
	}
	if stats.RecentOrders == nil {
		stats.RecentOrders = []models.Checkout{}
	}
	return stats, nil
}

// PromoteAdmin makes an existing account an active, verified admin. It is
// the bootstrap path for the first administrator.
func (s *Service) PromoteAdmin(ctx context.Context, email string) (models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.User{}, domain.NotFound("User")
		}
		return models.User{}, err
	}

	user.Role = models.RoleAdmin
	user.IsActive = true
	user.Verified = true
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, &user); err != nil {
		return models.User{}, err
	}
	logrus.WithField("email", user.Email).Info("User promoted to admin")
	return user, nil
}
