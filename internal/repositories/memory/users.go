package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"
)

type userRepo struct{ v *view }

func (r *userRepo) CreateUser(_ context.Context, user *models.User) (int64, error) {
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.Username == user.Username {
				return fmt.Errorf("%w: username %s", repositories.ErrDuplicateKey, user.Username)
			}
		}
		st.nextUserID++
		user.ID = st.nextUserID
		now := time.Now()
		user.CreatedAt = now
		user.UpdatedAt = now
		st.users[user.ID] = *user
		return nil
	})
	return user.ID, err
}

func (r *userRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	var out *models.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.Username == username {
				u := u
				out = &u
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *userRepo) GetUserByID(_ context.Context, userID int64) (*models.User, error) {
	var out models.User
	err := r.v.do(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) CountUsers(_ context.Context) (int, error) {
	var n int
	err := r.v.do(func(st *state) error {
		n = len(st.users)
		return nil
	})
	return n, err
}

func (r *userRepo) ListUsers(_ context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			users = append(users, u)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
	return users, err
}
