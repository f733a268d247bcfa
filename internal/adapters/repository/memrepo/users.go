package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepo struct{ s *Store }

func (r *userRepo) unique(u models.User) bool {
	for id, other := range r.s.users {
		if id != u.ID && (other.Email == u.Email || other.Username == u.Username) {
			return false
		}
	}
	return true
}

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&user.ID)
	if _, ok := r.s.users[user.ID]; ok || !r.unique(*user) {
		return conflict("create user")
	}
	r.s.users[user.ID] = clone(*user)
	return nil
}

func (r *userRepo) find(op string, match func(models.User) bool) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return models.User{}, notFound(op)
}

func (r *userRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	return r.find("get user", func(u models.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	return r.find("get user by email", func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (models.User, error) {
	return r.find("get user by username", func(u models.User) bool { return u.Username == username })
}

func (r *userRepo) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (models.User, error) {
	return r.find("get user by reset token", func(u models.User) bool {
		return u.ResetPasswordToken != "" && u.ResetPasswordToken == tokenHash &&
			u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now)
	})
}

func (r *userRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return notFound("update user")
	}
	if !r.unique(*user) {
		return conflict("update user")
	}
	r.s.users[user.ID] = clone(*user)
	return nil
}

func (r *userRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	return nil
}

func (r *userRepo) List(_ context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := values(r.s.users, nil)
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (r *userRepo) FindAuthors(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Author, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Author, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = models.Author{ID: u.ID, Username: u.Username, ProfileImage: u.ProfileImage, Email: u.Email}
		}
	}
	return out, nil
}

func (r *userRepo) CountByRole(_ context.Context, role models.Role) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}
