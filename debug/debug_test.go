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

package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianjacob/gpuocelot/internal/kernel"
	"github.com/florianjacob/gpuocelot/ptx"
)

func TestGetStats(t *testing.T) {
	before := GetStats()
	_, err := kernel.New([]ptx.Statement{
		ptx.NewEntry("k"),
		ptx.NewInstr(ptx.NewInstruction(ptx.OP_add, ptx.T_u32).
			Set(ptx.R_dest, ptx.Reg("%a", ptx.T_u32)).
			Set(ptx.R_srcA, ptx.Reg("%b", ptx.T_u32)).
			Set(ptx.R_srcB, ptx.Imm(1, ptx.T_u32))),
	}, false)
	require.NoError(t, err)
	_, err = kernel.New([]ptx.Statement{ptx.NewEndParam()}, false)
	require.Error(t, err)

	after := GetStats()
	assert.Equal(t, before.Kernels+1, after.Kernels)
	assert.Equal(t, before.Failures+1, after.Failures)
	assert.Equal(t, before.Graph.Blocks+1, after.Graph.Blocks)
	assert.Equal(t, before.Graph.Edges+2, after.Graph.Edges)
	assert.Equal(t, before.Registers+2, after.Registers)
}

func TestDump(t *testing.T) {
	k := kernel.NewEmpty("k", false)
	out := Dump(k)
	assert.Contains(t, out, `Name: (string) (len=1) "k"`)
	assert.Equal(t, out, Dump(k))
}
