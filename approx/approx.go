// Package approx defines the trainable function approximator the agent
// learns with, along with its versioned serialization schema.
package approx

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTopology = errors.New("unknown approximator topology")
	ErrShapeMismatch   = errors.New("shape mismatch")
)

// Approximator maps a feature vector to one value per action.
type Approximator interface {
	Predict(features []float64) []float64
	// FitBatch runs one epoch over the batch and returns the mean squared error
	// measured before the update.
	FitBatch(features, targets [][]float64, opts FitOptions) (float64, error)
	Weights() [][]float64
	SetWeights(weights [][]float64) error
	Snapshot() Snapshot
}

type FitOptions struct {
	LearningRate float64
	// ClipValue bounds each gradient element to [-ClipValue, ClipValue]; zero
	// disables clipping.
	ClipValue float64
}

// Topology describes the shape of an approximator independently of its
// weights.
type Topology struct {
	Kind       string `json:"kind"`
	Version    int    `json:"version"`
	Inputs     int    `json:"inputs"`
	Hidden     []int  `json:"hidden"`
	Outputs    int    `json:"outputs"`
	Activation string `json:"activation"`
}

// Snapshot is the serializable form of an approximator.
type Snapshot struct {
	Topology Topology    `json:"topology"`
	Weights  [][]float64 `json:"weights"`
}

// FromSnapshot rebuilds an approximator. Unrecognised kinds or versions are
// rejected rather than coerced.
func FromSnapshot(s Snapshot) (Approximator, error) {
	switch s.Topology.Kind {
	case KindMLP:
		if s.Topology.Version != MLPVersion {
			return nil, fmt.Errorf("%w: %s version %d", ErrUnknownTopology, s.Topology.Kind, s.Topology.Version)
		}
		if s.Topology.Inputs <= 0 || s.Topology.Outputs <= 0 {
			return nil, fmt.Errorf("%w: %d inputs, %d outputs", ErrShapeMismatch, s.Topology.Inputs, s.Topology.Outputs)
		}
		for _, h := range s.Topology.Hidden {
			if h <= 0 {
				return nil, fmt.Errorf("%w: hidden layer of size %d", ErrShapeMismatch, h)
			}
		}
		m := newMLP(s.Topology.Inputs, s.Topology.Outputs, s.Topology.Hidden)
		if err := m.SetWeights(s.Weights); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnknownTopology, s.Topology.Kind)
	}
}

// Clone returns an independent copy with identical weights.
func Clone(a Approximator) (Approximator, error) {
	return FromSnapshot(a.Snapshot())
}
