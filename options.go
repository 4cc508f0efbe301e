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

package ocelot

import (
	"fmt"

	"github.com/florianjacob/gpuocelot/internal/logging"
	"github.com/florianjacob/gpuocelot/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithMaxWorkers sets the maximum number of kernels a module builds
// concurrently.
//
// This value can also be configured with the `OCELOT_MAX_WORKERS`
// environment variable.
//
// The default value of this option is "8".
func WithMaxWorkers(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("ocelot: invalid worker count: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxWorkers = n }
	}
}

// WithCanonicalLabels renames the blocks of every kernel in a module to
// `$BB_<kernel>_<block>`, so the kernels can be concatenated without label
// collisions. The previous labels are kept as comments.
func WithCanonicalLabels(v bool) Option {
	return func(o *opts.Options) { o.CanonicalLabels = v }
}

// WithVersion sets the version string written in the banner of every kernel.
//
// This value can also be configured with the `OCELOT_VERSION` environment
// variable.
func WithVersion(v string) Option {
	if v == "" {
		panic("ocelot: empty version string")
	} else {
		return func(o *opts.Options) { o.Version = v }
	}
}

// WithLogLevel sets the level of the package-wide logger, one of the zap level
// names or "none".
//
// This value can also be configured with the `OCELOT_LOG_LEVEL` environment
// variable.
//
// The default value of this option is "warn".
func WithLogLevel(level string) Option {
	if _, err := logging.ParseLevel(level); err != nil && level != logging.LevelNone {
		panic("ocelot: " + err.Error())
	} else {
		return func(o *opts.Options) { o.LogLevel = level }
	}
}

// SetMaxWorkers sets the default worker count for all modules from now on.
//
// Returns the old opts.MaxWorkers value.
func SetMaxWorkers(n int) int {
	n, opts.MaxWorkers = opts.MaxWorkers, n
	return n
}

// SetVersion sets the default banner version for all kernels from now on.
//
// Returns the old opts.Version value.
func SetVersion(v string) string {
	v, opts.Version = opts.Version, v
	return v
}

func makeOptions(options []Option) opts.Options {
	ret := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&ret)
	}
	return ret
}
