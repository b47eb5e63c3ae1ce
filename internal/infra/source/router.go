package source

import (
	"context"
	"fmt"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
)

// Router dispatches a fetch to the source registered for its driver.
type Router struct {
	drivers map[string]survey.Source
}

// NewRouter constructs an empty router.
func NewRouter() *Router {
	return &Router{drivers: make(map[string]survey.Source)}
}

// Register binds a driver name; nil sources are ignored.
func (r *Router) Register(driver string, src survey.Source) *Router {
	if src != nil {
		r.drivers[driver] = src
	}
	return r
}

// Has reports whether a driver is registered.
func (r *Router) Has(driver string) bool {
	_, ok := r.drivers[driver]
	return ok
}

// Fetch implements survey.Source.
func (r *Router) Fetch(ctx context.Context, ref survey.SourceRef) ([]byte, error) {
	src, ok := r.drivers[ref.Driver]
	if !ok {
		return nil, fmt.Errorf("no source registered for driver %q", ref.Driver)
	}
	return src.Fetch(ctx, ref)
}

var _ survey.Source = (*Router)(nil)
