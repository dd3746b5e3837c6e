package app

import (
	"context"
	"testing"
)

func TestApp_Shutdown_NotStarted(t *testing.T) {
	app := New(createTestConfig(t), createTestLogger(t))

	// Shutdown without starting - should succeed
	err := app.Shutdown()
	if err != nil {
		t.Errorf("Shutdown() should succeed when not started, got error: %v", err)
	}

	app.mu.Lock()
	started := app.started
	app.mu.Unlock()

	if started {
		t.Error("Shutdown() started should be false after shutdown of not started app")
	}
}

func TestApp_Shutdown_Started(t *testing.T) {
	app := New(createTestConfig(t), createTestLogger(t))

	if err := app.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	appCtx := app.ctx

	if err := app.Shutdown(); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}

	app.mu.Lock()
	started := app.started
	scheduler := app.cronScheduler
	app.mu.Unlock()

	if started {
		t.Error("Shutdown() started should be false after shutdown")
	}
	if scheduler != nil {
		t.Error("Shutdown() scheduler should be released")
	}

	select {
	case <-appCtx.Done():
		// Expected
	default:
		t.Error("Shutdown() context should be cancelled")
	}
}

func TestApp_Shutdown_Twice(t *testing.T) {
	app := New(createTestConfig(t), createTestLogger(t))

	if err := app.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		t.Errorf("first Shutdown() failed: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		t.Errorf("second Shutdown() failed: %v", err)
	}
}

func TestApp_Shutdown_AfterBuildOnly(t *testing.T) {
	app := New(createTestConfig(t), createTestLogger(t))

	if err := app.Build(context.Background()); err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
	if app.closeStore != nil {
		t.Error("Shutdown() should close the store")
	}
}
