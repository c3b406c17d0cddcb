// Package simulate drives a predictor service the way a fleet of sensors
// would: each sensor periodically asks which encryption algorithm to use for
// a randomly generated workload.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/pkg/client"
)

// DefaultIterations is the number of rounds when Config.Iterations is zero.
const DefaultIterations = 10

// ErrUnhealthy is returned when the health check answers but the service
// reports that it is not ready.
var ErrUnhealthy = errors.New("predictor is not healthy")

// Predictor is the client surface the simulation uses. *client.Client
// satisfies it.
type Predictor interface {
	Health(ctx context.Context) (*client.HealthStatus, error)
	Model(ctx context.Context) (*client.ModelInfo, error)
	Predict(ctx context.Context, sensorID int, p client.Params) (*client.Prediction, error)
}

// Config controls a simulation run.
type Config struct {
	Sensors    int
	Iterations int
	// Interval is the pause between iterations. Requests within an
	// iteration are spread evenly across it.
	Interval time.Duration
	// Seed makes the generated workloads reproducible; 0 seeds from the clock.
	Seed int64
}

// Summary tallies a run.
type Summary struct {
	Sent        int
	Succeeded   int
	Failed      int
	ByAlgorithm map[string]int
}

// Runner executes one simulation.
type Runner struct {
	pred   Predictor
	cfg    Config
	out    io.Writer
	logger *zap.Logger
	rng    *rand.Rand
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRunner validates cfg and returns a Runner that prints progress to out.
func NewRunner(pred Predictor, cfg Config, out io.Writer, logger *zap.Logger) (*Runner, error) {
	if cfg.Sensors < 1 {
		return nil, fmt.Errorf("sensors must be at least 1, got %d", cfg.Sensors)
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("iterations must not be negative, got %d", cfg.Iterations)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("interval must not be negative, got %s", cfg.Interval)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Runner{
		pred:   pred,
		cfg:    cfg,
		out:    out,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
		sleep:  sleepCtx,
	}, nil
}

// Run checks service health, then sends Iterations rounds of one request per
// sensor. A failed request is reported and counted but never stops the run;
// a cancelled ctx does, returning the partial Summary with ctx.Err().
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	fmt.Fprintf(r.out, "Starting simulation with %d sensors...\n", r.cfg.Sensors)

	h, err := r.pred.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not reach the predictor: %w", err)
	}
	if !h.Healthy() {
		return nil, ErrUnhealthy
	}
	fmt.Fprintln(r.out, "API is running. Starting sensor simulation...")

	choices := r.choices(ctx)
	sum := &Summary{ByAlgorithm: make(map[string]int)}
	stagger := r.cfg.Interval / time.Duration(r.cfg.Sensors)

	for i := 1; i <= r.cfg.Iterations; i++ {
		fmt.Fprintf(r.out, "\n--- Iteration %d ---\n", i)
		for id := 1; id <= r.cfg.Sensors; id++ {
			r.send(ctx, id, choices, sum)
			if err := r.sleep(ctx, stagger); err != nil {
				return sum, err
			}
		}
		if err := r.sleep(ctx, r.cfg.Interval); err != nil {
			return sum, err
		}
	}

	fmt.Fprintln(r.out, "\nSimulation completed.")
	r.logger.Info("simulation finished",
		zap.Int("sent", sum.Sent),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

// choices prefers the categories the service publishes and falls back to
// the built-in defaults.
func (r *Runner) choices(ctx context.Context) Choices {
	info, err := r.pred.Model(ctx)
	if err == nil {
		cs, cerr := ChoicesFromModel(info)
		if cerr == nil {
			return cs
		}
		err = cerr
	}
	r.logger.Warn("using built-in category choices", zap.Error(err))
	return DefaultChoices()
}

func (r *Runner) send(ctx context.Context, sensorID int, choices Choices, sum *Summary) {
	params := choices.Random(r.rng)

	fmt.Fprintf(r.out, "\nSensor %d sending request with parameters:\n", sensorID)
	for _, c := range choices {
		fmt.Fprintf(r.out, "  %s: %s\n", c.Field, params[c.Field])
	}

	sum.Sent++
	pred, err := r.pred.Predict(ctx, sensorID, params)
	if err != nil {
		sum.Failed++
		fmt.Fprintf(r.out, "Sensor %d %s\n", sensorID, describeError(err))
		r.logger.Debug("sensor request failed", zap.Int("sensor_id", sensorID), zap.Error(err))
		return
	}
	sum.Succeeded++
	sum.ByAlgorithm[pred.Algorithm]++
	fmt.Fprintf(r.out, "Sensor %d received recommendation: %s\n", sensorID, pred.Algorithm)
}

// PrintSummary writes a per-algorithm tally, most frequent first.
func PrintSummary(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "\nRequests: %d sent, %d succeeded, %d failed\n", s.Sent, s.Succeeded, s.Failed)
	algs := make([]string, 0, len(s.ByAlgorithm))
	for a := range s.ByAlgorithm {
		algs = append(algs, a)
	}
	sort.Slice(algs, func(i, j int) bool {
		if s.ByAlgorithm[algs[i]] != s.ByAlgorithm[algs[j]] {
			return s.ByAlgorithm[algs[i]] > s.ByAlgorithm[algs[j]]
		}
		return algs[i] < algs[j]
	})
	for _, a := range algs {
		fmt.Fprintf(w, "  %-10s %d\n", a, s.ByAlgorithm[a])
	}
}

func describeError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("error: %d - %s", apiErr.StatusCode, apiErr.Message)
	}
	return fmt.Sprintf("connection error: %v", err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
