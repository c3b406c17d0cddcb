package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/artifact"
)

// ── Stubs ────────────────────────────────────────────────────────────────

// stubHash returns queued results per path, repeating the last one.
type stubHash struct {
	results map[string][]string
}

func (s *stubHash) hash(path string) (string, error) {
	q := s.results[path]
	if len(q) == 0 {
		return "", errors.New("no such file")
	}
	sum := q[0]
	if len(q) > 1 {
		s.results[path] = q[1:]
	}
	if sum == "" {
		return "", errors.New("unreadable")
	}
	return sum, nil
}

// ── Tests ────────────────────────────────────────────────────────────────

func TestCheckAll_currentArtifacts(t *testing.T) {
	h := &stubHash{results: map[string][]string{"/m.json": {"aa"}, "/e.json": {"bb"}}}
	checker := New([]Artifact{
		{Name: "model", Path: "/m.json", Fingerprint: "aa"},
		{Name: "encoders", Path: "/e.json", Fingerprint: "bb"},
	}, h.hash, Config{FailThreshold: 2}, zap.NewNop())

	for i := 0; i < 3; i++ {
		if got := checker.CheckAll(); len(got) != 0 {
			t.Fatalf("run %d: expected no drift, got %v", i, got)
		}
	}
}

func TestCheckAll_driftsAfterThreshold(t *testing.T) {
	h := &stubHash{results: map[string][]string{"/m.json": {"changed"}}}
	checker := New([]Artifact{
		{Name: "model", Path: "/m.json", Fingerprint: "aa"},
	}, h.hash, Config{FailThreshold: 3}, zap.NewNop())

	recorded := map[string]bool{}
	checker.SetMetricsRecord(func(name string, drifted bool) { recorded[name] = drifted })

	// Two checks stay below the threshold of three.
	for i := 0; i < 2; i++ {
		if got := checker.CheckAll(); len(got) != 0 {
			t.Fatalf("run %d: drift reported before threshold: %v", i, got)
		}
	}
	got := checker.CheckAll()
	if len(got) != 1 || got[0] != "model" {
		t.Fatalf("expected model to drift, got %v", got)
	}
	if !recorded["model"] {
		t.Error("metrics callback not told about drift")
	}
}

func TestCheckAll_unreadableCountsAsDrift(t *testing.T) {
	h := &stubHash{results: map[string][]string{"/m.json": {""}}}
	checker := New([]Artifact{
		{Name: "model", Path: "/m.json", Fingerprint: "aa"},
	}, h.hash, Config{FailThreshold: 1}, zap.NewNop())

	if got := checker.CheckAll(); len(got) != 1 {
		t.Errorf("expected unreadable artifact to drift, got %v", got)
	}
}

func TestCheckAll_recoversWhenRestored(t *testing.T) {
	// Changed 3 times, then restored.
	h := &stubHash{results: map[string][]string{"/m.json": {"x", "x", "x", "aa"}}}
	checker := New([]Artifact{
		{Name: "model", Path: "/m.json", Fingerprint: "aa"},
	}, h.hash, Config{FailThreshold: 3}, zap.NewNop())

	recorded := map[string]bool{}
	checker.SetMetricsRecord(func(name string, drifted bool) { recorded[name] = drifted })

	for i := 0; i < 3; i++ {
		checker.CheckAll()
	}
	if !recorded["model"] {
		t.Fatal("expected drift after 3 changed checks")
	}
	if got := checker.CheckAll(); len(got) != 0 {
		t.Errorf("expected recovery, got %v", got)
	}
	if recorded["model"] {
		t.Error("metrics callback not told about recovery")
	}
}

func TestCheckAll_realFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(`{"kind":"decision_tree"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	sum, err := artifact.FingerprintFile(path)
	if err != nil {
		t.Fatal(err)
	}
	checker := New([]Artifact{{Name: "model", Path: path, Fingerprint: sum}},
		artifact.FingerprintFile, Config{FailThreshold: 1}, zap.NewNop())

	if got := checker.CheckAll(); len(got) != 0 {
		t.Fatalf("unchanged file reported as drifted: %v", got)
	}

	if err := os.WriteFile(path, []byte(`{"kind":"random_forest"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := checker.CheckAll(); len(got) != 1 {
		t.Errorf("rewritten file not reported: %v", got)
	}
}

func TestStart_stopsOnCancel(t *testing.T) {
	h := &stubHash{results: map[string][]string{}}
	checker := New(nil, h.hash, Config{CheckInterval: time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
