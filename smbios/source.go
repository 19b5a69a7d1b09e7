// Copyright 2017-2018 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package smbios

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/afero"
)

// DevMem is the default location of the physical memory device.
const DevMem = "/dev/mem"

// A ByteSource provides positioned, fixed-size reads from a flat physical
// address space.
type ByteSource interface {
	// Seek positions the source at an absolute address.
	Seek(addr uint64) error
	// ReadFull reads exactly len(b) bytes from the current position.
	// A short read is an error.
	ReadFull(b []byte) error
}

// An IOError is returned when a ByteSource fails to seek or read.
type IOError struct {
	Op   string
	Addr uint64
	Len  int
	Err  error
}

func (e *IOError) Error() string {
	if e.Op == "seek" {
		return fmt.Sprintf("seek to %#x: %v", e.Addr, e.Err)
	}

	return fmt.Sprintf("%s %d bytes at %#x: %v", e.Op, e.Len, e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error { return e.Err }

var _ ByteSource = &Source{}

// A Source is a ByteSource backed by an io.ReadSeeker whose offsets are
// physical addresses.
type Source struct {
	rs  io.ReadSeeker
	pos uint64
}

// NewSource creates a Source which reads from rs.
func NewSource(rs io.ReadSeeker) *Source {
	return &Source{rs: rs}
}

// Seek implements ByteSource.
func (s *Source) Seek(addr uint64) error {
	if addr > math.MaxInt64 {
		return &IOError{Op: "seek", Addr: addr, Err: errors.New("address out of range")}
	}

	if _, err := s.rs.Seek(int64(addr), io.SeekStart); err != nil {
		return &IOError{Op: "seek", Addr: addr, Err: err}
	}

	s.pos = addr
	return nil
}

// ReadFull implements ByteSource.
func (s *Source) ReadFull(b []byte) error {
	n, err := io.ReadFull(s.rs, b)
	at := s.pos
	s.pos += uint64(n)
	if err != nil {
		return &IOError{Op: "read", Addr: at, Len: len(b), Err: err}
	}

	return nil
}

// A MemorySource is a Source backed by an open physical memory device or a
// captured memory image.  It must be closed after use.
type MemorySource struct {
	*Source
	f afero.File
}

// OpenMemory opens path on fs read-only as a MemorySource.  Use
// afero.NewOsFs and DevMem to read the live physical address space.
func OpenMemory(fs afero.Fs, path string) (*MemorySource, error) {
	f, err := fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	return &MemorySource{
		Source: NewSource(f),
		f:      f,
	}, nil
}

// Close releases the underlying file.
func (m *MemorySource) Close() error { return m.f.Close() }
