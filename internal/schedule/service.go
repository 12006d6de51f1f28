// Package schedule implements recurring pattern management, lesson
// generation, conflict detection, the lesson status machine, and scoped
// schedule reads.
package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"studio-schedule/internal/store"
)

type Service struct {
	store       store.Store
	validate    *validator.Validate
	horizonDays int

	// now is swapped out in tests to pin the clock.
	now func() time.Time
}

func NewService(st store.Store, horizonDays int) *Service {
	if horizonDays <= 0 {
		horizonDays = 14
	}
	return &Service{
		store:       st,
		validate:    validator.New(),
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

// HorizonDays reports the configured periodic generation window.
func (s *Service) HorizonDays() int {
	return s.horizonDays
}
