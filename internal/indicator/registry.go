package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Factory returns a fresh, unconfigured indicator.
type Factory func() Indicator

// IndicatorRegistry manages all available indicators.
type IndicatorRegistry interface {
	RegisterIndicator(name types.IndicatorType, factory Factory) error
	GetIndicator(name types.IndicatorType) (Indicator, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
	// Calculate builds the named indicator, configures it with params and
	// runs it over series.
	Calculate(name types.IndicatorType, series types.PriceSeries, params ...any) ([]float64, error)
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	factories map[types.IndicatorType]Factory
	mu        sync.RWMutex
}

// NewIndicatorRegistry creates an empty indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		factories: make(map[types.IndicatorType]Factory),
		mu:        sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding the built-in indicators.
func NewDefaultRegistry() IndicatorRegistry {
	r := NewIndicatorRegistry()
	_ = r.RegisterIndicator(types.IndicatorTypeSMA, NewMA)
	_ = r.RegisterIndicator(types.IndicatorTypeRSI, NewRSI)

	return r
}

var defaultRegistry = NewDefaultRegistry()

// RegisterIndicator adds an indicator factory to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(name types.IndicatorType, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "indicator with name %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// GetIndicator returns a new instance of the named indicator.
func (r *IndicatorRegistryV1) GetIndicator(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	return factory(), nil
}

// ListIndicators returns the registered indicator names in sorted order.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	delete(r.factories, name)

	return nil
}

func (r *IndicatorRegistryV1) Calculate(name types.IndicatorType, series types.PriceSeries, params ...any) ([]float64, error) {
	ind, err := r.GetIndicator(name)
	if err != nil {
		return nil, err
	}

	if err := ind.Config(params...); err != nil {
		return nil, err
	}

	return ind.Calculate(series)
}
