package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/scenemotion/logging"
	"go.viam.com/scenemotion/utils"
)

func TestWatcher(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "scene.json")
	test.That(t, os.WriteFile(path, []byte(`{"execution_speed": 1}`), 0o600), test.ShouldBeNil)

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, logger, func(cfg *Config) { changes <- cfg })
	test.That(t, err, test.ShouldBeNil)
	workers := utils.NewStoppableWorkersWithContext(context.Background(), w.Run)
	defer workers.Stop()

	test.That(t, os.WriteFile(path, []byte(`{"execution_speed": -1}`), 0o600), test.ShouldBeNil)
	time.Sleep(3 * reloadDelay)
	test.That(t, os.WriteFile(path, []byte(`{"execution_speed": 3}`), 0o600), test.ShouldBeNil)
	select {
	case cfg := <-changes:
		test.That(t, cfg.ExecutionSpeed, test.ShouldEqual, 3.0)
	case <-time.After(10 * time.Second):
		t.Fatal("no config change delivered")
	}

	_, err = NewWatcher(filepath.Join(t.TempDir(), "missing", "scene.json"), logger, func(*Config) {})
	test.That(t, err, test.ShouldNotBeNil)
}
