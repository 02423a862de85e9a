// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package hwpipe

import (
	"bytes"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotInitialized indicates a protocol operation was attempted on a
	// component before Init.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized indicates Init was called on a component that is
	// already initialized.
	ErrAlreadyInitialized = errors.New("component already initialized")
)

// DefaultBaseDir returns the directory holding the channel pipes.
//
// The IO_BASE_DIR environment variable selects the directory, falling back
// to /var/run.
//
// This is resolved once when the component is constructed, and may be
// overridden per component with [WithBaseDir].
func DefaultBaseDir() string {
	if dir := os.Getenv("IO_BASE_DIR"); dir != "" {
		return dir
	}
	return "/var/run"
}

// Component is a hardware component exposing its data streams to other
// processes as named pipes.
//
// Each component owns one pipe per channel, created by Init and removed by
// Cleanup. Messages are newline-terminated UTF-8 text lines, each either a
// single decimal number or a comma-separated tuple of decimal numbers.
//
// A Component is not safe for concurrent use by multiple goroutines. For
// components polled by a [LoopedComponent] loop, protocol I/O belongs to the
// tick goroutine while the loop is running.
type Component struct {
	// The logical name of the component, which also names its pipes.
	name string

	// The directory holding the pipe nodes.
	baseDir string

	// The numeric suffix of the first channel pipe.
	offset int

	// The number of channels.
	channels int

	logger *slog.Logger

	// Open pipes, one per channel, nil unless initialized.
	fifos []*fifo

	// Per-channel partial line buffers.
	bufs [][]byte

	initialized bool
}

// NewComponent constructs a Component with the given name.
//
// The component has a single channel and places its pipes in
// [DefaultBaseDir] unless configured otherwise with [WithChannels],
// [WithOffset] and [WithBaseDir].
//
// The component is constructed uninitialized, with no pipes open.
func NewComponent(name string, options ...ComponentOption) *Component {
	c := &Component{
		name:     name,
		baseDir:  DefaultBaseDir(),
		channels: 1,
		logger:   slog.Default(),
	}
	for _, o := range options {
		o.applyComponentOption(c)
	}
	return c
}

// Name returns the logical name of the component.
func (c *Component) Name() string {
	return c.name
}

// Channels returns the number of channels of the component.
func (c *Component) Channels() int {
	return c.channels
}

// Path returns the filesystem path of the pipe for the given channel.
//
// Single-channel components use the bare component name, e.g.
// "/var/run/motor". Multi-channel components suffix the name with the
// channel's numeric index starting at the configured offset, e.g.
// "/var/run/motor2".
//
// The path is computed from configuration, so is valid whether or not the
// component is initialized.
func (c *Component) Path(channel int) string {
	return fifoPath(c.baseDir, c.name, c.offset+channel, c.channels >= 2)
}

// Initialized returns whether the component currently holds its pipes open.
func (c *Component) Initialized() bool {
	return c.initialized
}

// checkInit signals the usage fault of operating on an uninitialized
// component.
func (c *Component) checkInit() error {
	if !c.initialized {
		return errors.Wrap(ErrNotInitialized, c.name)
	}
	return nil
}

// Init creates and opens the channel pipes.
//
// Returns ErrAlreadyInitialized if the component is already initialized —
// Cleanup must be called before the component can be initialized again.
//
// On failure any pipes already opened are closed and removed, so a failed
// Init leaves the component uninitialized with no filesystem nodes behind.
func (c *Component) Init() error {
	if c.initialized {
		return errors.Wrap(ErrAlreadyInitialized, c.name)
	}
	suffixed := c.channels >= 2
	fifos := make([]*fifo, 0, c.channels)
	for i := 0; i < c.channels; i++ {
		f, err := openFifo(c.baseDir, c.name, c.offset+i, suffixed)
		if err != nil {
			for _, ff := range fifos {
				ff.close()
			}
			return err
		}
		fifos = append(fifos, f)
	}
	c.fifos = fifos
	c.bufs = make([][]byte, c.channels)
	c.initialized = true
	return nil
}

// Cleanup closes the channel pipes and removes their filesystem nodes.
//
// Cleanup is idempotent — calling it on an uninitialized component is a
// no-op. The component may be re-initialized afterwards.
func (c *Component) Cleanup() error {
	if !c.initialized {
		return nil
	}
	var err error
	for _, f := range c.fifos {
		if cerr := f.close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	c.fifos = nil
	c.bufs = nil
	c.initialized = false
	return err
}

// Use runs fn with the component initialized, guaranteeing Cleanup on every
// exit path, including a panic in fn.
//
// This is the only path through the library that guarantees the pipes are
// removed however fn exits. Callers pairing Init and Cleanup manually must
// provide that guarantee themselves.
func (c *Component) Use(fn func(*Component) error) (err error) {
	if err = c.Init(); err != nil {
		return err
	}
	defer func() {
		cerr := c.Cleanup()
		if err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// fifo returns the open pipe for a channel.
func (c *Component) fifo(channel int) (*fifo, error) {
	if err := c.checkInit(); err != nil {
		return nil, err
	}
	if channel < 0 || channel >= len(c.fifos) {
		return nil, errors.Errorf("%s has no channel %d", c.name, channel)
	}
	return c.fifos[channel], nil
}

// WriteData writes the values as one message on the given channel.
//
// The values are serialized as comma-joined shortest decimal text with a
// trailing newline, so WriteData(0, 1, 2.5, 3) puts the line "1,2.5,3" on
// the channel pipe.
//
// Messages written to one channel reach the pipe in call order.
func (c *Component) WriteData(channel int, values ...float64) error {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return c.WriteText(channel, strings.Join(fields, ","))
}

// WriteText writes text as one message on the given channel.
//
// A newline is appended. The text is not escaped, so it must not itself
// contain a newline, nor a comma unless a tuple is intended by the reader.
func (c *Component) WriteText(channel int, text string) error {
	f, err := c.fifo(channel)
	if err != nil {
		return err
	}
	_, err = f.write(append([]byte(text), '\n'))
	return err
}

// Values is one decoded message — a single number or a comma-separated
// tuple. A scalar message decodes as a Values of length 1.
type Values []float64

// Scalar returns the first value of the message, or 0 if it is empty.
func (v Values) Scalar() float64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// ReadData reads the next complete message from the given channel.
//
// Returns (nil, nil) when no complete message is available yet — an empty
// pipe is not an error. Numbers are always decoded as floating point,
// whatever the writer sent.
func (c *Component) ReadData(channel int) (Values, error) {
	text, ok, err := c.ReadText(channel)
	if err != nil || !ok {
		return nil, err
	}
	fields := strings.Split(text, ",")
	vals := make(Values, len(fields))
	for i, field := range fields {
		v, perr := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if perr != nil {
			return nil, errors.Wrapf(perr, "%s channel %d: malformed message %q",
				c.name, channel, text)
		}
		vals[i] = v
	}
	return vals, nil
}

// ReadText reads the next complete message from the given channel as raw
// text, without the trailing newline.
//
// Returns ok false when no complete message is available yet.
//
// Bytes read from the pipe are buffered per channel until a newline
// arrives, so messages split across pipe writes are reassembled, and each
// message is delivered exactly once however the bytes were chunked.
func (c *Component) ReadText(channel int) (string, bool, error) {
	f, err := c.fifo(channel)
	if err != nil {
		return "", false, err
	}
	for {
		chunk, rerr := f.read()
		if rerr != nil {
			return "", false, rerr
		}
		if len(chunk) == 0 {
			break
		}
		c.bufs[channel] = append(c.bufs[channel], chunk...)
	}
	buf := c.bufs[channel]
	i := bytes.IndexByte(buf, '\n')
	if i < 0 {
		return "", false, nil
	}
	line := string(buf[:i])
	c.bufs[channel] = buf[i+1:]
	return line, true, nil
}
