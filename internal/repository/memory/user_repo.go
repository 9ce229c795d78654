package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"opinex/internal/domain/user"
)

type UserRepo struct {
	mu     sync.RWMutex
	users  map[string]*user.User
	byMail map[string]string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users:  make(map[string]*user.User),
		byMail: make(map[string]string),
	}
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byMail[u.Email]; taken {
		return user.ErrEmailTaken
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	copyUser := *u
	r.users[u.ID] = &copyUser
	r.byMail[u.Email] = u.ID
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byMail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	copyUser := *r.users[id]
	return &copyUser, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copyUser := *u
	return &copyUser, nil
}

func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		res = append(res, *u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Email < res[j].Email })
	return res, nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, id string, role user.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Role = role
	return nil
}
