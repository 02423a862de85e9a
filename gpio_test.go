// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// These tests drive the GPIO binding against a gpio-sim simulator, so
// require a kernel with CONFIG_GPIO_SIM and root permissions.

package hwpipe_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiosim"
	"github.com/warthog618/go-hwpipe"
)

func TestGPIOComponent(t *testing.T) {
	s, err := gpiosim.NewSimpleton(8)
	require.Nil(t, err)
	defer s.Close()

	g := hwpipe.NewGPIOComponent("door", []int{1}, []int{3},
		hwpipe.WithChip(s.ChipName()),
		hwpipe.WithBaseDir(t.TempDir()),
	)
	err = g.Init()
	require.Nil(t, err)
	defer g.Cleanup()
	assert.True(t, g.Initialized())
	assert.FileExists(t, g.Path(0))

	// pins are faults before they are set up, pipes work regardless
	err = g.SetPin(6, 1)
	assert.NotNil(t, err)
	err = g.WriteData(0, 1)
	assert.Nil(t, err)

	// output pin requested driven low, then driven from here
	checkSimLevel(t, s, 1, 0)
	err = g.SetPin(1, 1)
	assert.Nil(t, err)
	checkSimLevel(t, s, 1, 1)
	err = g.SetPin(1, 0)
	assert.Nil(t, err)
	checkSimLevel(t, s, 1, 0)

	// input pin follows the simulated pull
	err = s.Pullup(3)
	require.Nil(t, err)
	checkPinLevel(t, g, 3, 1)
	err = s.Pulldown(3)
	require.Nil(t, err)
	checkPinLevel(t, g, 3, 0)

	err = g.Cleanup()
	assert.Nil(t, err)
	assert.False(t, g.Initialized())
	assert.NoFileExists(t, g.Path(0))
}

func checkSimLevel(t *testing.T, s *gpiosim.Simpleton, offset, xv int) {
	t.Helper()
	v, err := s.Level(offset)
	assert.Nil(t, err)
	assert.Equal(t, xv, v)
}

func checkPinLevel(t *testing.T, g *hwpipe.GPIOComponent, pin, xv int) {
	t.Helper()
	v, err := g.Pin(pin)
	assert.Nil(t, err)
	assert.Equal(t, xv, v)
}

func TestGPIOComponentEvents(t *testing.T) {
	s, err := gpiosim.NewSimpleton(8)
	require.Nil(t, err)
	defer s.Close()

	g := hwpipe.NewGPIOComponent("button", nil, []int{5},
		hwpipe.WithChip(s.ChipName()),
		hwpipe.WithBaseDir(t.TempDir()),
	)
	err = g.Init()
	require.Nil(t, err)
	defer g.Cleanup()

	var edges, generic atomic.Int32
	g.AddHandler(5, func(pin int) {
		assert.Equal(t, 5, pin)
		edges.Add(1)
	})
	g.AddGenericHandler(func(pin int) {
		generic.Add(1)
	})

	// each pull transition is one edge event through the registry
	err = s.Pullup(5)
	require.Nil(t, err)
	require.Eventually(t, func() bool {
		return edges.Load() == 1
	}, time.Second, time.Millisecond)
	err = s.Pulldown(5)
	require.Nil(t, err)
	require.Eventually(t, func() bool {
		return edges.Load() == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, int32(2), generic.Load())
}

func TestGPIOComponentHoggedPin(t *testing.T) {
	s, err := gpiosim.NewSim(
		gpiosim.WithBank(gpiosim.NewBank("hwpipe_test", 8,
			gpiosim.WithHoggedLine(2, "piggy", gpiosim.HogDirectionInput),
		)),
	)
	require.Nil(t, err)
	defer s.Close()
	c := &s.Chips[0]

	// a pin held by another consumer is skipped, not fatal
	g := hwpipe.NewGPIOComponent("greedy", []int{1, 2}, nil,
		hwpipe.WithChip(c.ChipName()),
		hwpipe.WithBaseDir(t.TempDir()),
	)
	err = g.Init()
	require.Nil(t, err)
	defer g.Cleanup()
	assert.True(t, g.Initialized())

	err = g.SetPin(1, 1)
	assert.Nil(t, err)
	err = g.SetPin(2, 1)
	assert.NotNil(t, err)
}
