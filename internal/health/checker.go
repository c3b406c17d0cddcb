// Package health watches the artifact files the running model was loaded
// from. The service never reloads; the checker only reports when the files
// on disk no longer match what is being served, so operators know a restart
// is due.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds drift check configuration.
type Config struct {
	CheckInterval time.Duration
	FailThreshold int
}

// Artifact is a file and the fingerprint it had when loaded.
type Artifact struct {
	Name        string
	Path        string
	Fingerprint string
}

// FingerprintFunc hashes the file at path.
type FingerprintFunc func(path string) (string, error)

// MetricsRecordFunc is an optional callback receiving each artifact's
// drift state after every check.
type MetricsRecordFunc func(artifact string, drifted bool)

// Checker runs periodic artifact drift checks.
type Checker struct {
	artifacts  []Artifact
	hash       FingerprintFunc
	failCounts map[string]int
	mu         sync.Mutex
	cfg        Config
	onMetrics  MetricsRecordFunc
	logger     *zap.Logger
}

// New creates a new Checker.
func New(artifacts []Artifact, hash FingerprintFunc, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	return &Checker{
		artifacts:  artifacts,
		hash:       hash,
		failCounts: make(map[string]int),
		cfg:        cfg,
		logger:     logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (c *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	c.onMetrics = fn
}

// Start runs the check loop until ctx is done.
func (c *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CheckAll()
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll fingerprints every artifact once. An artifact counts as drifted
// after FailThreshold consecutive checks that find it changed or unreadable.
// It returns the names of drifted artifacts.
func (c *Checker) CheckAll() []string {
	var drifted []string

	for _, a := range c.artifacts {
		sum, err := c.hash(a.Path)
		matches := err == nil && sum == a.Fingerprint

		c.mu.Lock()
		prevCount := c.failCounts[a.Name]
		if matches {
			c.failCounts[a.Name] = 0
		} else {
			c.failCounts[a.Name]++
		}
		count := c.failCounts[a.Name]
		c.mu.Unlock()

		isDrifted := count >= c.cfg.FailThreshold
		if isDrifted {
			drifted = append(drifted, a.Name)
		}
		if c.onMetrics != nil {
			c.onMetrics(a.Name, isDrifted)
		}

		switch {
		case matches && prevCount >= c.cfg.FailThreshold:
			// Transition: drifted → current
			c.logger.Info("artifact matches the loaded model again",
				zap.String("artifact", a.Name),
				zap.String("path", a.Path),
			)
		case count == c.cfg.FailThreshold:
			// Transition: current → drifted (exactly at threshold)
			fields := []zap.Field{
				zap.String("artifact", a.Name),
				zap.String("path", a.Path),
				zap.String("loaded_blake2b", a.Fingerprint),
				zap.Int("fail_count", count),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			} else {
				fields = append(fields, zap.String("disk_blake2b", sum))
			}
			c.logger.Warn("artifact on disk differs from the loaded model; restart to serve it", fields...)
		}
	}

	return drifted
}
