/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/florianjacob/gpuocelot/internal/opts"
)

// LevelNone disables logging altogether.
const LevelNone = "none"

var (
	mu     sync.RWMutex
	level  = opts.LogLevel
	logger = mustNew(level)
)

func mustNew(level string) *zap.Logger {
	if ret, err := New(level); err != nil {
		panic("ocelot: " + err.Error())
	} else {
		return ret
	}
}

// ParseLevel parses a zap level name such as "debug" or "warn".
func ParseLevel(level string) (zapcore.Level, error) {
	var ret zapcore.Level
	if err := ret.UnmarshalText([]byte(level)); err != nil {
		return ret, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return ret, nil
}

// New builds a console logger writing to stderr at the given level.
func New(level string) (*zap.Logger, error) {
	if level == LevelNone {
		return zap.NewNop(), nil
	}

	lv, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lv)
	config.Encoding = "console"
	config.Sampling = nil
	config.DisableStacktrace = true
	config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	return config.Build()
}

// L returns the package-wide logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Level returns the level the package-wide logger was built with, or an
// empty string for a logger installed with Replace.
func Level() string {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetLevel replaces the package-wide logger with one at the given level.
func SetLevel(lv string) error {
	ret, err := New(lv)
	if err != nil {
		return err
	}
	swap(ret, lv)
	return nil
}

// Replace installs l as the package-wide logger and returns a function that
// restores the previous one.
func Replace(l *zap.Logger) func() {
	prev, lv := swap(l, "")
	return func() { swap(prev, lv) }
}

func swap(l *zap.Logger, lv string) (*zap.Logger, string) {
	mu.Lock()
	defer mu.Unlock()
	prev, prevLevel := logger, level
	logger, level = l, lv
	return prev, prevLevel
}
