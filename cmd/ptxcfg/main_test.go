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

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ocelot "github.com/florianjacob/gpuocelot"
)

func TestInput(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ptx")
	b := filepath.Join(dir, "b.ptx")
	require.NoError(t, os.WriteFile(a, []byte(".entry a\n{\n\tret;\n}"), 0644))
	require.NoError(t, os.WriteFile(b, []byte(".entry b\n{\n\texit;\n}"), 0644))

	in, fps := openInput([]string{a, b})
	require.Len(t, fps, 2)
	m, err := ocelot.ReadModule(context.Background(), in, ocelot.WithLogLevel("none"))
	require.NoError(t, err)
	require.Len(t, m.Kernels, 2)
	require.Equal(t, "b", m.Kernels[1].Name)

	closeInput(fps)
	for _, fp := range fps {
		require.True(t, errors.Is(fp.Close(), os.ErrClosed))
	}
}

func TestInput_Stdin(t *testing.T) {
	in, fps := openInput(nil)
	require.Same(t, os.Stdin, in)
	require.Empty(t, fps)
}

func TestWriteDominators(t *testing.T) {
	src := ".entry k\n{\n\tsetp.lt.s32 %p1, %r1, %r2;\n\t@%p1 bra L2;\n\tadd.s32 %r3, %r1, %r2;\nL2:\n\tret;\n}\n"
	m, err := ocelot.ReadModule(context.Background(), strings.NewReader(src), ocelot.WithLogLevel("none"))
	require.NoError(t, err)
	buf := bytes.NewBuffer(nil)
	require.NoError(t, writeDominators(m.Kernels[0], buf))
	require.Equal(t, "k:\n"+
		"\tBB_0\tidom -\tipdom BB_2\n"+
		"\tBB_1\tidom L2\tipdom -\n"+
		"\tBB_2\tidom BB_0\tipdom L2\treconverge L2\n"+
		"\tBB_3\tidom BB_2\tipdom L2\n"+
		"\tL2\tidom BB_2\tipdom BB_1\n", buf.String())

	m.Kernels[0].Release()
	require.Error(t, writeDominators(m.Kernels[0], buf))
}
