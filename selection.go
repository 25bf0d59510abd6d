package geoform

import "fmt"

// Selection is the pair of ids owned by a form session. Zero means absent.
type Selection struct {
	CountryID int
	StateID   int
}

// HasCountry reports whether a country is selected.
func (s Selection) HasCountry() bool {
	return s.CountryID > 0
}

// Complete reports whether both a country and a state are selected.
func (s Selection) Complete() bool {
	return s.CountryID > 0 && s.StateID > 0
}

// Summary returns the line shown under the form once both ids are present.
func (s Selection) Summary() (string, bool) {
	if !s.Complete() {
		return "", false
	}
	return fmt.Sprintf("Country ID %d, State ID %d", s.CountryID, s.StateID), true
}

// Event drives a Selection transition.
type Event interface {
	apply(Selection) Selection
}

// CountryChanged selects a country. The state selection is always cleared.
type CountryChanged struct {
	ID int
}

func (e CountryChanged) apply(Selection) Selection {
	id := e.ID
	if id < 0 {
		id = 0
	}
	return Selection{CountryID: id}
}

// StateChanged selects a state. It is ignored while no country is selected.
type StateChanged struct {
	ID int
}

func (e StateChanged) apply(s Selection) Selection {
	if !s.HasCountry() {
		return Selection{}
	}
	id := e.ID
	if id < 0 {
		id = 0
	}
	s.StateID = id
	return s
}

// Cleared resets both ids.
type Cleared struct{}

func (Cleared) apply(Selection) Selection {
	return Selection{}
}

// Reduce applies ev to s and returns the next selection. A nil event leaves
// s unchanged.
func Reduce(s Selection, ev Event) Selection {
	if ev == nil {
		return s
	}
	return ev.apply(s)
}
