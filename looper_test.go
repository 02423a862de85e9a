// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package hwpipe_test

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-hwpipe"
)

func TestLoopedComponent(t *testing.T) {
	c := hwpipe.NewComponent("poller", hwpipe.WithBaseDir(t.TempDir()))
	var ticks atomic.Int32
	l := hwpipe.NewLoopedComponent(c, 5*time.Millisecond,
		hwpipe.TickerFunc(func() {
			ticks.Add(1)
		}))

	// the loop is alive but silent before Start
	time.Sleep(25 * time.Millisecond)
	assert.Zero(t, ticks.Load())

	// Start before Init is a usage fault
	err := l.Start()
	assert.ErrorIs(t, err, hwpipe.ErrNotInitialized)
	assert.False(t, l.Running())

	err = l.Init(false)
	require.Nil(t, err)
	defer l.Cleanup()
	assert.Zero(t, ticks.Load())

	err = l.Start()
	assert.Nil(t, err)
	assert.True(t, l.Running())
	require.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, time.Second, time.Millisecond)

	l.Stop()
	assert.False(t, l.Running())
	// no further ticks once the in-flight interval drains
	time.Sleep(10 * time.Millisecond)
	stopped := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load())

	// restartable without re-init
	err = l.Start()
	assert.Nil(t, err)
	require.Eventually(t, func() bool {
		return ticks.Load() > stopped
	}, time.Second, time.Millisecond)
}

func TestLoopedComponentAutostart(t *testing.T) {
	c := hwpipe.NewComponent("autopoller", hwpipe.WithBaseDir(t.TempDir()))
	var ticks atomic.Int32
	l := hwpipe.NewLoopedComponent(c, 5*time.Millisecond,
		hwpipe.TickerFunc(func() {
			ticks.Add(1)
		}))

	err := l.Init(true)
	require.Nil(t, err)
	assert.True(t, l.Running())
	require.Eventually(t, func() bool {
		return ticks.Load() >= 1
	}, time.Second, time.Millisecond)

	// Cleanup stops tick delivery and removes the pipes
	err = l.Cleanup()
	assert.Nil(t, err)
	assert.False(t, l.Running())
	assert.NoFileExists(t, l.Path(0))
	time.Sleep(10 * time.Millisecond)
	stopped := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load())
}

func TestLoopedComponentTickIO(t *testing.T) {
	c := hwpipe.NewComponent("echo", hwpipe.WithBaseDir(t.TempDir()),
		hwpipe.WithChannels(2))
	// the tick owns the component's protocol I/O while running
	var l *hwpipe.LoopedComponent
	l = hwpipe.NewLoopedComponent(c, time.Millisecond,
		hwpipe.TickerFunc(func() {
			v, err := l.ReadData(0)
			if err == nil && v != nil {
				l.WriteData(1, v.Scalar()*2)
			}
		}))

	err := l.Init(true)
	require.Nil(t, err)
	defer l.Cleanup()

	writeRaw(t, l.Path(0), "21\n")
	require.Eventually(t, func() bool {
		return readLine(t, l.Path(1)) == "42\n"
	}, time.Second, time.Millisecond)
}

// readLine reads one short line from the pipe, returning "" if nothing
// arrives promptly.
func readLine(t *testing.T, path string) string {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	require.Nil(t, err)
	defer f.Close()
	f.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 16)
	n, _ := f.Read(buf)
	return string(buf[:n])
}
