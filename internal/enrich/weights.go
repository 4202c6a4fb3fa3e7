package enrich

import (
	"fmt"
	"math"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// Weights combine the five sub-scores into the composite llm_score.
type Weights struct {
	Competence float64 `yaml:"competence"`
	Company    float64 `yaml:"company"`
	Salary     float64 `yaml:"salary"`
	Location   float64 `yaml:"location"`
	Growth     float64 `yaml:"growth"`
}

// DefaultWeights favour skill fit over everything else.
var DefaultWeights = Weights{
	Competence: 0.45,
	Company:    0.20,
	Salary:     0.15,
	Location:   0.10,
	Growth:     0.10,
}

const weightTolerance = 0.001

func (w Weights) sum() float64 {
	return w.Competence + w.Company + w.Salary + w.Location + w.Growth
}

// Validate requires non-negative weights summing to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"competence": w.Competence,
		"company":    w.Company,
		"salary":     w.Salary,
		"location":   w.Location,
		"growth":     w.Growth,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be >= 0, got %v", name, v)
		}
	}
	if s := w.sum(); math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1, got %.4f", s)
	}
	return nil
}

// Composite returns the rounded weighted sum of s, clamped to [0,100].
// Sub-scores outside [0,100] are clamped before weighting.
func (w Weights) Composite(s model.SubScores) int {
	total := w.Competence*float64(clamp(s.Competence)) +
		w.Company*float64(clamp(s.Company)) +
		w.Salary*float64(clamp(s.Salary)) +
		w.Location*float64(clamp(s.Location)) +
		w.Growth*float64(clamp(s.Growth))
	return clamp(int(math.Round(total)))
}

func clamp(v int) int {
	return max(0, min(100, v))
}

func clampSubScores(s model.SubScores) model.SubScores {
	return model.SubScores{
		Competence: clamp(s.Competence),
		Company:    clamp(s.Company),
		Salary:     clamp(s.Salary),
		Location:   clamp(s.Location),
		Growth:     clamp(s.Growth),
	}
}
