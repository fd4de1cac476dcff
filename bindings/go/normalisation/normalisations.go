package normalisation

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Algorithm types and versions the algorithm used for digest generation.
type Algorithm = string

var ErrUnknownNormalisationAlgorithm = errors.New("unknown normalisation algorithm")

// Normalisation turns a value into the canonical bytes that are digested.
type Normalisation interface {
	Normalise(v any) ([]byte, error)
}

type Algorithms struct {
	sync.RWMutex
	algos map[string]Normalisation
}

func (n *Algorithms) Register(name string, norm Normalisation) {
	n.Lock()
	defer n.Unlock()
	n.algos[name] = norm
}

func (n *Algorithms) Get(algo string) Normalisation {
	n.RLock()
	defer n.RUnlock()
	return n.algos[algo]
}

func (n *Algorithms) Names() []string {
	n.RLock()
	defer n.RUnlock()
	return slices.Sorted(maps.Keys(n.algos))
}

func (n *Algorithms) Normalise(v any, algo string) ([]byte, error) {
	n.RLock()
	defer n.RUnlock()

	norm := n.algos[algo]
	if norm == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNormalisationAlgorithm, algo)
	}
	return norm.Normalise(v)
}

var Normalisations = Algorithms{algos: map[string]Normalisation{}}

func Normalise(v any, normAlgo string) ([]byte, error) {
	return Normalisations.Normalise(v, normAlgo)
}
