package enrich

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

func TestComposite_BoundsProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("composite stays in [0,100] for default weights", prop.ForAll(
		func(a, b, c, d, e int) bool {
			s := DefaultWeights.Composite(model.SubScores{Competence: a, Company: b, Salary: c, Location: d, Growth: e})
			return s >= 0 && s <= 100
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.Property("composite stays in [0,100] for any normalised weights", prop.ForAll(
		func(w1, w2, w3, w4, w5 float64, v int) bool {
			total := w1 + w2 + w3 + w4 + w5
			if total == 0 {
				return true
			}
			w := Weights{w1 / total, w2 / total, w3 / total, w4 / total, w5 / total}
			s := w.Composite(model.SubScores{Competence: v, Company: 100 - v, Salary: v / 2, Location: 100, Growth: 0})
			return s >= 0 && s <= 100
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.IntRange(0, 100),
	))

	properties.Property("uniform sub-scores give the same composite", prop.ForAll(
		func(v int) bool {
			return DefaultWeights.Composite(model.SubScores{Competence: v, Company: v, Salary: v, Location: v, Growth: v}) == v
		},
		gen.IntRange(0, 100),
	))

	properties.Property("out of range sub-scores are clamped", prop.ForAll(
		func(v int) bool {
			s := DefaultWeights.Composite(model.SubScores{Competence: v, Company: v, Salary: v, Location: v, Growth: v})
			return s >= 0 && s <= 100
		},
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		w       Weights
		wantErr bool
	}{
		{"default", DefaultWeights, false},
		{"equal", Weights{0.2, 0.2, 0.2, 0.2, 0.2}, false},
		{"within tolerance", Weights{0.4505, 0.2, 0.15, 0.1, 0.1}, false},
		{"sum too low", Weights{0.4, 0.2, 0.15, 0.1, 0.1}, true},
		{"negative", Weights{1.1, -0.1, 0, 0, 0}, true},
		{"zero", Weights{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
