package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-process Repository.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byPhone map[string]string
	byTG    map[int64]string
	now     func() time.Time
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*User),
		byPhone: make(map[string]string),
		byTG:    make(map[int64]string),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPhone[user.Phone]; ok {
		return nil, ErrPhoneTaken
	}
	if user.TelegramID != nil {
		if _, ok := r.byTG[*user.TelegramID]; ok {
			return nil, ErrTelegramTaken
		}
	}

	stored := cloneUser(user)
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now().UTC()
	stored.UpdatedAt = stored.CreatedAt

	r.byID[stored.ID] = stored
	r.byPhone[stored.Phone] = stored.ID
	if stored.TelegramID != nil {
		r.byTG[*stored.TelegramID] = stored.ID
	}

	return cloneUser(stored), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	r.mu.RLock()
	id, ok := r.byPhone[phone]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	r.mu.RLock()
	id, ok := r.byTG[telegramID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) Update(_ context.Context, id string, upd ProfileUpdate) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.TelegramID != nil {
		if owner, taken := r.byTG[*upd.TelegramID]; taken && owner != id {
			return nil, ErrTelegramTaken
		}
		if u.TelegramID != nil {
			delete(r.byTG, *u.TelegramID)
		}
		r.byTG[*upd.TelegramID] = id
	}

	next := cloneUser(u)
	upd.Apply(next)
	// Apply shares upd's pointers.
	next = cloneUser(next)
	next.UpdatedAt = r.now().UTC()
	r.byID[id] = next
	return cloneUser(next), nil
}

// cloneUser deep-copies u so stored records never alias caller memory.
func cloneUser(u *User) *User {
	c := *u
	c.TelegramID = clonePtr(u.TelegramID)
	c.FirstName = clonePtr(u.FirstName)
	c.Surname = clonePtr(u.Surname)
	c.Patronymic = clonePtr(u.Patronymic)
	c.Gender = clonePtr(u.Gender)
	c.Birthdate = clonePtr(u.Birthdate)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
