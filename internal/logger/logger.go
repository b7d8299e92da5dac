// Package logger holds the process-wide structured logger built on Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.Mutex
	sugar *zap.SugaredLogger
)

// Init configures the global logger for the given environment. "production"
// gets JSON output; anything else (including "test" and an empty env) gets a
// console encoder. Repeated calls after the first are no-ops.
func Init(env string) {
	mu.Lock()
	defer mu.Unlock()
	if sugar != nil {
		return
	}
	sugar = build(env).Sugar()
}

func build(env string) *zap.Logger {
	var base *zap.Logger
	var err error
	if env == "production" {
		base, err = zap.NewProduction()
	} else {
		base, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return base
}

// Get returns the global sugared logger, initializing a development logger
// when Init was never called.
func Get() *zap.SugaredLogger {
	mu.Lock()
	l := sugar
	mu.Unlock()
	if l == nil {
		Init("development")
		return Get()
	}
	return l
}

// Sync flushes buffered entries. Call before process exit.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if sugar != nil {
		_ = sugar.Sync()
	}
}
