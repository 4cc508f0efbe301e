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

// Package ocelot turns PTX kernels into control-flow graphs with dense
// register ids, and writes them back as PTX text.
package ocelot

import (
	"context"
	"io"

	"github.com/florianjacob/gpuocelot/internal/kernel"
	"github.com/florianjacob/gpuocelot/internal/logging"
	"github.com/florianjacob/gpuocelot/internal/module"
	"github.com/florianjacob/gpuocelot/internal/opts"
	"github.com/florianjacob/gpuocelot/ptx"
)

type (
	// Kernel is a single PTX kernel or function in control-flow graph form.
	Kernel = kernel.Kernel

	// Module is a set of kernels built together.
	Module = module.Module
)

// applyLogLevel installs the level of the call. The logger is shared by the
// whole process, so a call made with default options puts the default level
// back.
func applyLogLevel(o opts.Options) error {
	if o.LogLevel == logging.Level() {
		return nil
	}
	return logging.SetLevel(o.LogLevel)
}

// Parse reads PTX text into a statement stream.
func Parse(r io.Reader) ([]ptx.Statement, error) {
	return ptx.Parse(r)
}

// BuildKernel builds a kernel from the statements of its body. Whether it is
// a function or an entry point is taken from its header directive.
func BuildKernel(stmts []ptx.Statement, options ...Option) (*Kernel, error) {
	o := makeOptions(options)
	if err := applyLogLevel(o); err != nil {
		return nil, err
	}

	k, err := kernel.New(stmts, module.IsFunction(stmts))
	if err != nil {
		return nil, err
	}

	k.Version = o.Version
	return k, nil
}

// BuildModule builds every kernel of a statement stream. Kernels that fail to
// build are left out, and their errors are returned together with the module
// of the remaining ones.
func BuildModule(ctx context.Context, stmts []ptx.Statement, options ...Option) (*Module, error) {
	o := makeOptions(options)
	if err := applyLogLevel(o); err != nil {
		return nil, err
	}
	return module.Build(ctx, module.Split(stmts), o)
}

// ReadModule reads PTX text and builds every kernel in it.
func ReadModule(ctx context.Context, r io.Reader, options ...Option) (*Module, error) {
	stmts, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return BuildModule(ctx, stmts, options...)
}
