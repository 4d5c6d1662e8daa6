package train

import (
	"fmt"

	"github.com/coganlab/RNN-phoneme-decoding-micro/datasets"
)

// Seq2Seq fits the encoder-decoder model on teacher-forcing inputs. It is a
// thin wrapper over the model's own batch training loop: the trainer only
// validates the shared observation axis and passes the data through.
func Seq2Seq(m Model, x, xPrior, y datasets.Array, cfg FitConfig) (map[string][]float64, error) {
	if err := validateLeadingDims(x, xPrior, y); err != nil {
		return nil, err
	}
	if cfg.Validation != nil {
		if err := validateLeadingDims(cfg.Validation.X, cfg.Validation.XPrior, cfg.Validation.Y); err != nil {
			return nil, fmt.Errorf("validation data: %w", err)
		}
	}
	return m.Fit(x, xPrior, y, cfg)
}
