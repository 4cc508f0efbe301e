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
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New(LevelNone)
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.ErrorLevel))

	l, err = New("info")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.InfoLevel))
	require.False(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = New("loud")
	require.Error(t, err)
}

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lv := Level()
	restore := Replace(zap.New(core))
	require.Equal(t, "", Level())
	L().Debug("block", zap.String("label", "L1"))
	restore()
	require.Equal(t, lv, Level())
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "L1", logs.All()[0].ContextMap()["label"])
	require.Error(t, SetLevel("loud"))
}

func TestSetLevel(t *testing.T) {
	lv := Level()
	defer func() { require.NoError(t, SetLevel(lv)) }()
	require.NoError(t, SetLevel(LevelNone))
	require.Equal(t, LevelNone, Level())
	require.False(t, L().Core().Enabled(zapcore.ErrorLevel))
	require.NoError(t, SetLevel("debug"))
	require.Equal(t, "debug", Level())
	require.True(t, L().Core().Enabled(zapcore.DebugLevel))
}
