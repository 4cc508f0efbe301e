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

package opts

import (
	"os"
	"strconv"
)

const (
	_DefaultMaxWorkers = 8      // kernels built concurrently by a module
	_DefaultLogLevel   = "warn" // "none" disables logging
	_DefaultVersion    = "2.1.0"
)

var (
	MaxWorkers = parseOrDefault("OCELOT_MAX_WORKERS", _DefaultMaxWorkers, 0)
	LogLevel   = stringOrDefault("OCELOT_LOG_LEVEL", _DefaultLogLevel)
	Version    = stringOrDefault("OCELOT_VERSION", _DefaultVersion)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("ocelot: invalid value for " + key)
	} else if ret := int(val); ret <= min {
		panic("ocelot: value too small for " + key)
	} else {
		return ret
	}
}

func stringOrDefault(key string, def string) string {
	if env := os.Getenv(key); env == "" {
		return def
	} else {
		return env
	}
}
