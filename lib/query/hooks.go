package query

import (
	"context"

	"github.com/pthm/geoform"
)

// Fallback messages used when a fetch fails without a usable error.
const (
	CountriesFallback = "Failed to fetch countries"
	StatesFallback    = "Failed to fetch states"
)

// CountryLister lists countries.
type CountryLister interface {
	ListCountries(ctx context.Context) ([]geoform.Option, error)
}

// StateLister lists the states of a country.
type StateLister interface {
	ListStates(ctx context.Context, countryID int) ([]geoform.Option, error)
}

// Countries is the country list query. It has no parameter.
type Countries = Query[struct{}]

// States is the state list query, keyed by country id.
type States = Query[int]

// NewCountries creates the country query and starts its first fetch.
func NewCountries(api CountryLister, opts ...Option) *Countries {
	q := New("countries", func(ctx context.Context, _ struct{}) ([]geoform.Option, error) {
		return api.ListCountries(ctx)
	}, nil, CountriesFallback, opts...)
	q.Refetch()
	return q
}

// NewStates creates the state query in its reset state. Call SetKey with a
// country id to load.
func NewStates(api StateLister, opts ...Option) *States {
	return New("states", func(ctx context.Context, countryID int) ([]geoform.Option, error) {
		return api.ListStates(ctx, countryID)
	}, ValidCountryID, StatesFallback, opts...)
}

// ValidCountryID reports whether id can be used to fetch states.
func ValidCountryID(id int) bool {
	return id > 0
}
