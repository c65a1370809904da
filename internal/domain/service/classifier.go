package service

import (
	"fmt"

	"PaperDeck/internal/domain/models"
)

// Classifier is an opaque binary scorer over a flattened indicator vector.
// Score returns the probability of the positive class in [0,1].
type Classifier interface {
	Name() string
	Side() models.Side
	Score(vector []float64) (float64, error)
}

// Registry holds the classifiers the ensemble evaluates, in registration order.
// Swappable per deployment; the scorer never assumes a particular set.
type Registry struct {
	classifiers []Classifier
	byName      map[string]Classifier
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Classifier)}
}

// Register adds c to the registry. Duplicate names are rejected.
func (r *Registry) Register(c Classifier) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("classifier must have a name")
	}
	if _, ok := r.byName[c.Name()]; ok {
		return fmt.Errorf("classifier %q already registered", c.Name())
	}
	r.byName[c.Name()] = c
	r.classifiers = append(r.classifiers, c)
	return nil
}

// All returns registered classifiers in registration order.
func (r *Registry) All() []Classifier {
	out := make([]Classifier, len(r.classifiers))
	copy(out, r.classifiers)
	return out
}

// Get returns the classifier registered under name.
func (r *Registry) Get(name string) (Classifier, bool) {
	c, ok := r.byName[name]
	return c, ok
}
