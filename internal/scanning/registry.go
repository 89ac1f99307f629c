package scanning

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownModel is returned when no scanner is registered under a model name
var ErrUnknownModel = errors.New("unknown model")

// Registry selects a Scanner by model name
type Registry struct {
	scanners map[string]Scanner
	fallback string
}

// NewRegistry creates a registry whose empty model name resolves to fallback
func NewRegistry(fallback string) *Registry {
	return &Registry{
		scanners: make(map[string]Scanner),
		fallback: fallback,
	}
}

// Register adds a scanner under name, replacing any previous one
func (r *Registry) Register(name string, s Scanner) {
	r.scanners[name] = s
}

// Get returns the scanner registered under model
func (r *Registry) Get(model string) (Scanner, error) {
	if model == "" {
		model = r.fallback
	}
	s, ok := r.scanners[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return s, nil
}

// Models lists the registered model names
func (r *Registry) Models() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the fallback model name
func (r *Registry) Default() string {
	return r.fallback
}

// Close closes every registered scanner
func (r *Registry) Close() error {
	var errs []error
	for name, s := range r.scanners {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
