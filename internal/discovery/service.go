package discovery

import (
	"context"
	"sync/atomic"

	"github.com/ekisa-team/synadapt/internal/registry"
)

// Lister describes the platforms currently available.
type Lister interface {
	ListPlatforms(ctx context.Context) ([]Info, error)
}

// Service lists platforms with a filter that can be swapped at runtime.
type Service struct {
	reg    *registry.Registry
	filter atomic.Pointer[Filter]
}

var _ Lister = (*Service)(nil)

// NewService lists the platforms of reg. A nil reg uses the process-wide
// registry.
func NewService(reg *registry.Registry, f Filter) *Service {
	s := &Service{reg: reg}
	s.filter.Store(&f)
	return s
}

// SetFilter replaces the filter used by later calls.
func (s *Service) SetFilter(f Filter) {
	s.filter.Store(&f)
}

// Filter returns the filter in use.
func (s *Service) Filter() Filter {
	return *s.filter.Load()
}

// ListPlatforms runs discovery and describes the result. It only fails when
// ctx is done.
func (s *Service) ListPlatforms(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := s.Filter()
	if s.reg == nil {
		return Describe(GetPlatforms(f)), nil
	}
	return Describe(Platforms(s.reg, f)), nil
}
