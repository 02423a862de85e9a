// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package hwpipe

import (
	"fmt"
	"os"
	"path"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// fifo is one named pipe backing a single component channel.
//
// The pipe is opened read-write and non-blocking, so the component can hold
// both ends open regardless of whether a peer process is attached, and reads
// return immediately when no data is available.
//
// fifos are owned exclusively by their Component and have no identity
// outside it.
type fifo struct {
	// The path of the pipe node in the filesystem.
	path string

	// The raw file descriptor for the open pipe.
	fd int
}

// fifoPath computes the filesystem path for a channel pipe.
//
// Single-channel components use the bare name, multi-channel components get
// a numeric suffix per channel.
func fifoPath(dir, name string, num int, suffixed bool) string {
	if suffixed {
		return path.Join(dir, fmt.Sprintf("%s%d", name, num))
	}
	return path.Join(dir, name)
}

// openFifo creates the pipe node and opens it.
//
// Any stale node left at the path by a previous process is removed first.
// The node is created with a temporarily cleared umask so peer processes
// can attach regardless of the creating process's mask.
func openFifo(dir, name string, num int, suffixed bool) (*fifo, error) {
	p := fifoPath(dir, name, num, suffixed)
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "removing stale node %s", p)
	}
	umask := unix.Umask(0)
	err := unix.Mkfifo(p, 0666)
	unix.Umask(umask)
	if err != nil {
		return nil, errors.Wrapf(err, "creating fifo %s", p)
	}
	fd, err := unix.Open(p, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		os.Remove(p)
		return nil, errors.Wrapf(err, "opening fifo %s", p)
	}
	return &fifo{path: p, fd: fd}, nil
}

// read returns the bytes currently available on the pipe.
//
// Returns an empty slice, not an error, when the pipe is empty.
func (f *fifo) read() ([]byte, error) {
	buf := make([]byte, 4096)
	for {
		n, err := unix.Read(f.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return nil, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading fifo %s", f.path)
		}
		if n <= 0 {
			return nil, nil
		}
		return buf[:n], nil
	}
}

// write writes raw bytes to the pipe.
//
// The write is non-blocking, with no atomicity beyond what the OS pipe
// buffer guarantees.
func (f *fifo) write(b []byte) (int, error) {
	for {
		n, err := unix.Write(f.fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return n, errors.Wrapf(err, "writing fifo %s", f.path)
		}
		return n, nil
	}
}

// close closes the pipe and removes its filesystem node.
//
// A node already removed by some other party is not an error.
func (f *fifo) close() error {
	err := unix.Close(f.fd)
	if rerr := os.Remove(f.path); rerr != nil && !os.IsNotExist(rerr) && err == nil {
		err = rerr
	}
	return err
}
