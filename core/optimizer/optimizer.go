package optimizer

import (
	"context"

	"github.com/kilianp07/gridpulse/core/model"
)

// RemoteOptimizer sends a profile to an external optimization service. Any
// transport error, non-success status or malformed body is returned as an
// error; there are no partial results.
type RemoteOptimizer interface {
	Optimize(ctx context.Context, profile *model.EnergyProfile) (*model.OptimizationResult, error)
}
