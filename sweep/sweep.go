// Package sweep evaluates cost functions across parameter grids with a
// bounded worker pool. Cost functions serve one sequential evaluation
// stream each, so every worker builds its own instance from a factory.
package sweep

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/config"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/vqe"
)

// Factory builds one cost function per worker.
type Factory func() (vqe.CostFunction, error)

// Sweeper runs concurrent landscape scans.
type Sweeper struct {
	parallelism int
	logger      *zap.Logger
}

func New(logger *zap.Logger, cfg config.SweepConfig) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.WithDefaults()
	return &Sweeper{
		parallelism: cfg.Parallelism,
		logger:      logger,
	}
}

// Landscape evaluates every point and returns results aligned with
// points. The shots argument is forwarded to every evaluation. The
// first error cancels the sweep and is returned.
func (s *Sweeper) Landscape(
	ctx context.Context,
	factory Factory,
	points [][]float64,
	shots int,
) ([]vqe.Result, error) {
	results := make([]vqe.Result, len(points))
	if len(points) == 0 {
		return results, nil
	}

	workers := s.parallelism
	if workers > len(points) {
		workers = len(points)
	}
	if workers < 1 {
		workers = 1
	}

	indices := make(chan int)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(indices)
		for i := range points {
			select {
			case indices <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			fn, err := factory()
			if err != nil {
				return errors.Wrap(err, "landscape")
			}
			for i := range indices {
				result, err := fn.Evaluate(ctx, points[i], shots)
				if err != nil {
					return errors.Wrap(err, "landscape")
				}
				results[i] = result
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug(
		"landscape swept",
		zap.Int("points", len(points)),
		zap.Int("workers", workers),
	)
	return results, nil
}

// Linspace returns num evenly spaced values from start to stop
// inclusive.
func Linspace(start float64, stop float64, num int) []float64 {
	if num <= 0 {
		return nil
	}
	if num == 1 {
		return []float64{start}
	}
	values := make([]float64, num)
	step := (stop - start) / float64(num-1)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	values[num-1] = stop
	return values
}

// Cartesian returns the cross product of the axes with the last axis
// varying fastest.
func Cartesian(axes ...[]float64) [][]float64 {
	if len(axes) == 0 {
		return nil
	}
	total := 1
	for _, axis := range axes {
		total *= len(axis)
	}
	if total == 0 {
		return nil
	}

	points := make([][]float64, 0, total)
	indices := make([]int, len(axes))
	for {
		point := make([]float64, len(axes))
		for i, axis := range axes {
			point[i] = axis[indices[i]]
		}
		points = append(points, point)

		i := len(axes) - 1
		for ; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(axes[i]) {
				break
			}
			indices[i] = 0
		}
		if i < 0 {
			return points
		}
	}
}
