package providers

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Static serves fixed records, used in tests and local development where the
// collaborating services are not running.
type Static struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*User
	classrooms map[uuid.UUID]*Classroom
}

var (
	_ Identity = (*Static)(nil)
	_ Studio   = (*Static)(nil)
)

func NewStatic() *Static {
	return &Static{
		users:      make(map[uuid.UUID]*User),
		classrooms: make(map[uuid.UUID]*Classroom),
	}
}

func (s *Static) AddUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Static) AddClassroom(c *Classroom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classrooms[c.ID] = c
}

func (s *Static) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *Static) GetClassroom(ctx context.Context, id uuid.UUID) (*Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classrooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Static) ListClassrooms(ctx context.Context, studioID uuid.UUID) ([]*Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Classroom
	for _, c := range s.classrooms {
		if c.StudioID == studioID {
			out = append(out, c)
		}
	}
	return out, nil
}
