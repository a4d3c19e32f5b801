package approx

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

const (
	KindMLP    = "mlp"
	MLPVersion = 1

	beta1   = 0.9
	beta2   = 0.999
	epsilon = 1e-7
)

type MLPConfig struct {
	Hidden []int `yaml:"hidden" json:"hidden"`
}

func DefaultMLPConfig() MLPConfig {
	return MLPConfig{Hidden: []int{64, 64}}
}

// MLP is a fully connected ReLU network with a linear output layer trained
// with Adam on mean squared error.
type MLP struct {
	inputs  int
	outputs int
	hidden  []int
	layers  []*layer
	steps   int
}

type layer struct {
	w *mat.Dense // inputs x outputs
	b []float64

	mw, vw []float64
	mb, vb []float64
}

func newLayer(in, out int) *layer {
	return &layer{
		w:  mat.NewDense(in, out, nil),
		b:  make([]float64, out),
		mw: make([]float64, in*out),
		vw: make([]float64, in*out),
		mb: make([]float64, out),
		vb: make([]float64, out),
	}
}

func newMLP(inputs, outputs int, hidden []int) *MLP {
	m := &MLP{
		inputs:  inputs,
		outputs: outputs,
		hidden:  append([]int(nil), hidden...),
	}
	sizes := append(append([]int{inputs}, hidden...), outputs)
	for i := 0; i+1 < len(sizes); i++ {
		m.layers = append(m.layers, newLayer(sizes[i], sizes[i+1]))
	}
	return m
}

// NewMLP returns a network with Glorot-uniform weights drawn from rng.
func NewMLP(inputs, outputs int, c MLPConfig, rng *rand.Rand) *MLP {
	if inputs <= 0 || outputs <= 0 {
		panic(fmt.Sprintf("invalid mlp shape %d -> %d", inputs, outputs))
	}
	for _, h := range c.Hidden {
		if h <= 0 {
			panic(fmt.Sprintf("invalid hidden layer size %d", h))
		}
	}

	m := newMLP(inputs, outputs, c.Hidden)
	for _, l := range m.layers {
		in, out := l.w.Dims()
		limit := math.Sqrt(6 / float64(in+out))
		data := l.w.RawMatrix().Data
		for i := range data {
			data[i] = (2*rng.Float64() - 1) * limit
		}
	}
	return m
}

func (m *MLP) forward(x *mat.Dense) []*mat.Dense {
	acts := make([]*mat.Dense, 0, len(m.layers)+1)
	acts = append(acts, x)
	a := x
	for i, l := range m.layers {
		last := i == len(m.layers)-1
		z := new(mat.Dense)
		z.Mul(a, l.w)
		z.Apply(func(_, c int, v float64) float64 {
			v += l.b[c]
			if !last && v < 0 {
				return 0
			}
			return v
		}, z)
		acts = append(acts, z)
		a = z
	}
	return acts
}

func (m *MLP) Predict(features []float64) []float64 {
	if len(features) != m.inputs {
		panic(fmt.Sprintf("mlp expects %d features, got %d", m.inputs, len(features)))
	}
	x := mat.NewDense(1, m.inputs, append([]float64(nil), features...))
	acts := m.forward(x)
	return append([]float64(nil), acts[len(acts)-1].RawRowView(0)...)
}

func (m *MLP) FitBatch(features, targets [][]float64, opts FitOptions) (float64, error) {
	n := len(features)
	if n == 0 || n != len(targets) {
		return 0, fmt.Errorf("%w: %d feature rows, %d target rows", ErrShapeMismatch, n, len(targets))
	}
	x := mat.NewDense(n, m.inputs, nil)
	y := mat.NewDense(n, m.outputs, nil)
	for i := 0; i < n; i++ {
		if len(features[i]) != m.inputs || len(targets[i]) != m.outputs {
			return 0, fmt.Errorf("%w: row %d has %d features and %d targets", ErrShapeMismatch, i, len(features[i]), len(targets[i]))
		}
		x.SetRow(i, features[i])
		y.SetRow(i, targets[i])
	}

	acts := m.forward(x)
	delta := new(mat.Dense)
	delta.Sub(acts[len(acts)-1], y)

	size := float64(n * m.outputs)
	loss := 0.0
	for _, d := range delta.RawMatrix().Data {
		loss += d * d
	}
	loss /= size
	delta.Scale(2/size, delta)

	m.steps++
	for i := len(m.layers) - 1; i >= 0; i-- {
		l := m.layers[i]

		gw := new(mat.Dense)
		gw.Mul(acts[i].T(), delta)
		rows, cols := delta.Dims()
		gb := make([]float64, cols)
		for r := 0; r < rows; r++ {
			for c, v := range delta.RawRowView(r) {
				gb[c] += v
			}
		}

		// Propagate through the pre-update weights.
		if i > 0 {
			next := new(mat.Dense)
			next.Mul(delta, l.w.T())
			prev := acts[i]
			next.Apply(func(r, c int, v float64) float64 {
				if prev.At(r, c) <= 0 {
					return 0
				}
				return v
			}, next)
			delta = next
		}

		m.adam(l.w.RawMatrix().Data, gw.RawMatrix().Data, l.mw, l.vw, opts)
		m.adam(l.b, gb, l.mb, l.vb, opts)
	}

	return loss, nil
}

func (m *MLP) adam(params, grads, mom, vel []float64, opts FitOptions) {
	c1 := 1 - math.Pow(beta1, float64(m.steps))
	c2 := 1 - math.Pow(beta2, float64(m.steps))
	for i, g := range grads {
		g = clip(g, opts.ClipValue)
		mom[i] = beta1*mom[i] + (1-beta1)*g
		vel[i] = beta2*vel[i] + (1-beta2)*g*g
		params[i] -= opts.LearningRate * (mom[i] / c1) / (math.Sqrt(vel[i]/c2) + epsilon)
	}
}

func clip(g, bound float64) float64 {
	if bound <= 0 {
		return g
	}
	return math.Max(-bound, math.Min(bound, g))
}

// Weights returns a deep copy: for each layer its row-major weight matrix
// followed by its bias vector.
func (m *MLP) Weights() [][]float64 {
	weights := make([][]float64, 0, 2*len(m.layers))
	for _, l := range m.layers {
		weights = append(weights,
			append([]float64(nil), l.w.RawMatrix().Data...),
			append([]float64(nil), l.b...),
		)
	}
	return weights
}

func (m *MLP) SetWeights(weights [][]float64) error {
	if len(weights) != 2*len(m.layers) {
		return fmt.Errorf("%w: %d weight blocks, want %d", ErrShapeMismatch, len(weights), 2*len(m.layers))
	}
	for i, l := range m.layers {
		w, b := weights[2*i], weights[2*i+1]
		if len(w) != len(l.w.RawMatrix().Data) || len(b) != len(l.b) {
			return fmt.Errorf("%w: layer %d", ErrShapeMismatch, i)
		}
	}
	for i, l := range m.layers {
		copy(l.w.RawMatrix().Data, weights[2*i])
		copy(l.b, weights[2*i+1])
	}
	return nil
}

func (m *MLP) Snapshot() Snapshot {
	return Snapshot{
		Topology: Topology{
			Kind:       KindMLP,
			Version:    MLPVersion,
			Inputs:     m.inputs,
			Hidden:     append([]int(nil), m.hidden...),
			Outputs:    m.outputs,
			Activation: "relu",
		},
		Weights: m.Weights(),
	}
}
