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

package module

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bytedance/gopkg/util/gopool"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/florianjacob/gpuocelot/internal/kernel"
	"github.com/florianjacob/gpuocelot/internal/logging"
	"github.com/florianjacob/gpuocelot/internal/opts"
	"github.com/florianjacob/gpuocelot/ptx"
)

// Module is a set of kernels that are built, labeled and written together.
type Module struct {
	Kernels []*kernel.Kernel
}

// Split cuts a flat statement stream into the sources of its kernels. A new
// source starts at every Entry or FunctionName directive, statements before
// the first one form a source of their own.
func Split(stmts []ptx.Statement) [][]ptx.Statement {
	var ret [][]ptx.Statement
	var cur []ptx.Statement

	for _, st := range stmts {
		if st.Directive == ptx.D_entry || st.Directive == ptx.D_funcname {
			if len(cur) != 0 {
				ret = append(ret, cur)
			}
			cur = nil
		}
		cur = append(cur, st)
	}

	if len(cur) != 0 {
		ret = append(ret, cur)
	}
	return ret
}

// IsFunction reports whether a kernel source declares a function rather than
// an entry point.
func IsFunction(src []ptx.Statement) bool {
	for _, st := range src {
		switch st.Directive {
		case ptx.D_entry:
			return false
		case ptx.D_funcname:
			return true
		}
	}
	return false
}

type result struct {
	k   *kernel.Kernel
	err error
}

// Build builds every kernel source concurrently, with at most o.MaxWorkers
// kernels in flight. A kernel that fails to build is left out of the module
// and its error is collected, the other kernels are not affected. Kernels
// keep the order of their sources. Once ctx is done no more kernels are
// started.
func Build(ctx context.Context, sources [][]ptx.Statement, o opts.Options) (*Module, error) {
	var wg sync.WaitGroup
	var err error

	log := logging.L()
	res := make([]result, len(sources))

	if len(sources) == 0 {
		return new(Module), nil
	}

	pool := gopool.NewPool("ocelot.module", int32(o.Workers(len(sources))), gopool.NewConfig())

	for i, src := range sources {
		if err = ctx.Err(); err != nil {
			break
		}

		wg.Add(1)
		i, src := i, src

		pool.CtxGo(ctx, func() {
			defer wg.Done()
			res[i] = buildOne(i, src, o)
		})
	}

	wg.Wait()
	ret := &Module{Kernels: make([]*kernel.Kernel, 0, len(sources))}

	for i, r := range res {
		if r.err != nil {
			log.Warn("kernel build failed", zap.Int("index", i), zap.Error(r.err))
			err = multierr.Append(err, r.err)
		} else if r.k != nil {
			ret.Kernels = append(ret.Kernels, r.k)
		}
	}

	if o.CanonicalLabels {
		err = multierr.Append(err, ret.Canonicalize())
	}

	log.Debug("module built", zap.Int("kernels", len(ret.Kernels)), zap.Int("failed", len(multierr.Errors(err))))
	return ret, err
}

func buildOne(i int, src []ptx.Statement, o opts.Options) (ret result) {
	defer func() {
		if v := recover(); v != nil {
			ret = result{err: fmt.Errorf("kernel #%d: panic during build: %v", i, v)}
		}
	}()

	k, err := kernel.New(src, IsFunction(src))
	if err != nil {
		return result{err: fmt.Errorf("kernel #%d: %w", i, err)}
	}

	k.Version = o.Version
	return result{k: k}
}

// Canonicalize gives every kernel canonical block labels, using its position
// in the module as the kernel id. A released kernel
// fails without stopping the others.
func (self *Module) Canonicalize() (err error) {
	for i, k := range self.Kernels {
		err = multierr.Append(err, k.CanonicalBlockLabels(i))
	}
	return
}

// Kernel returns the kernel named `name`, or nil.
func (self *Module) Kernel(name string) *kernel.Kernel {
	for _, k := range self.Kernels {
		if k.Name == name {
			return k
		}
	}
	return nil
}

// Write emits every kernel in order, separated by a blank line.
func (self *Module) Write(w io.Writer) error {
	for i, k := range self.Kernels {
		if i != 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := k.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// Release releases every kernel of the module.
func (self *Module) Release() {
	for _, k := range self.Kernels {
		k.Release()
	}
	self.Kernels = nil
}
