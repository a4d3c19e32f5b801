package agent

import "fmt"

// Hyperparameters are fixed at construction. The current learning rate and
// epsilon move linearly from their initial to their final values over
// DecaySteps learning steps.
type Hyperparameters struct {
	LearningRate      float64 `yaml:"learningRate" json:"learningRate"`
	FinalLearningRate float64 `yaml:"finalLearningRate" json:"finalLearningRate"`
	Gamma             float64 `yaml:"gamma" json:"gamma"`
	Epsilon           float64 `yaml:"epsilon" json:"epsilon"`
	MinEpsilon        float64 `yaml:"minEpsilon" json:"minEpsilon"`
	DecaySteps        int     `yaml:"decaySteps" json:"decaySteps"`
	BufferSize        int     `yaml:"bufferSize" json:"bufferSize"`
	BatchSize         int     `yaml:"batchSize" json:"batchSize"`
	TargetUpdateFreq  int     `yaml:"targetUpdateFreq" json:"targetUpdateFreq"`
	ClipValue         float64 `yaml:"clipValue" json:"clipValue"`
}

func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		LearningRate:      0.001,
		FinalLearningRate: 0.0001,
		Gamma:             0.95,
		Epsilon:           1.0,
		MinEpsilon:        0.05,
		DecaySteps:        10000,
		BufferSize:        10000,
		BatchSize:         32,
		TargetUpdateFreq:  100,
		ClipValue:         1.0,
	}
}

func (hp Hyperparameters) Validate() error {
	switch {
	case hp.LearningRate <= 0 || hp.FinalLearningRate < 0:
		return fmt.Errorf("learning rates must be positive, got %g -> %g", hp.LearningRate, hp.FinalLearningRate)
	case hp.Gamma < 0 || hp.Gamma > 1:
		return fmt.Errorf("gamma %g out of range [0, 1]", hp.Gamma)
	case hp.Epsilon < 0 || hp.Epsilon > 1 || hp.MinEpsilon < 0 || hp.MinEpsilon > hp.Epsilon:
		return fmt.Errorf("epsilon schedule %g -> %g out of range", hp.Epsilon, hp.MinEpsilon)
	case hp.DecaySteps < 0:
		return fmt.Errorf("decay steps must not be negative, got %d", hp.DecaySteps)
	case hp.BatchSize <= 0 || hp.BufferSize < hp.BatchSize:
		return fmt.Errorf("buffer size %d must hold at least one batch of %d", hp.BufferSize, hp.BatchSize)
	case hp.TargetUpdateFreq <= 0:
		return fmt.Errorf("target update frequency must be positive, got %d", hp.TargetUpdateFreq)
	case hp.ClipValue < 0:
		return fmt.Errorf("clip value must not be negative, got %g", hp.ClipValue)
	}
	return nil
}

// linear interpolates from initial to final over horizon steps and holds the
// final value afterwards.
func linear(initial, final float64, step, horizon int) float64 {
	if horizon <= 0 || step >= horizon {
		return final
	}
	return initial + (final-initial)*float64(step)/float64(horizon)
}
