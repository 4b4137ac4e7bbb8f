package validate

import (
	"errors"
	"fmt"
	"math"

	"github.com/onnwee/cropadvisor/internal/recommend"
)

// ErrNonFinite is returned when a soil reading is NaN or infinite.
var ErrNonFinite = errors.New("value must be a finite number")

// SoilSample rejects samples with NaN or infinite readings. Finite values
// outside the physical domain (negative nitrogen, pH above 14) are accepted:
// they simply fail to match any crop range.
func SoilSample(s recommend.SoilSample) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"nitrogen", s.Nitrogen},
		{"phosphorus", s.Phosphorus},
		{"potassium", s.Potassium},
		{"ph", s.PH},
		{"humidity", s.Humidity},
		{"temperature", s.Temperature},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s", ErrNonFinite, f.name)
		}
	}
	return nil
}
