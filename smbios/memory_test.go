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

package smbios_test

import (
	"bytes"
	"encoding/binary"

	"github.com/yywing/go-dmitable/smbios"
)

// Physical memory layout used by the tests.
const (
	memSize   = 0x100000
	tableAddr = 0x1000
)

// makeMemory returns a zeroed physical memory image covering the legacy
// BIOS area.
func makeMemory() []byte {
	return make([]byte, memSize)
}

// makeEntryPoint returns a legacy DMI entry point with a valid checksum.
func makeEntryPoint(addr uint32, length, count uint16, rev uint8) []byte {
	b := make([]byte, 15)

	copy(b[0:5], "_DMI_")
	binary.LittleEndian.PutUint16(b[6:8], length)
	binary.LittleEndian.PutUint32(b[8:12], addr)
	binary.LittleEndian.PutUint16(b[12:14], count)
	b[14] = rev

	var chk uint8
	for i := range b {
		// Explicitly skip the checksum byte for computation.
		if i == 5 {
			continue
		}

		chk += b[i]
	}

	// Produce the correct checksum for the entry point.
	b[5] = 0 - chk

	return b
}

// makeTable returns a memory image with stream placed at tableAddr and a
// Table describing it.
func makeTable(stream []byte, count uint16) ([]byte, smbios.Table) {
	b := makeMemory()
	copy(b[tableAddr:], stream)

	return b, smbios.Table{
		Address: tableAddr,
		Length:  uint16(len(stream)),
		Count:   count,
	}
}

var _ smbios.ByteSource = &countingSource{}

// A countingSource records the reads made through a ByteSource.
type countingSource struct {
	src   smbios.ByteSource
	pos   uint64
	reads int
	// end is one past the highest address read.
	end uint64
}

func newCountingSource(b []byte) *countingSource {
	return &countingSource{src: smbios.NewSource(bytes.NewReader(b))}
}

func (c *countingSource) Seek(addr uint64) error {
	c.pos = addr
	return c.src.Seek(addr)
}

func (c *countingSource) ReadFull(b []byte) error {
	c.reads++
	c.pos += uint64(len(b))
	if c.pos > c.end {
		c.end = c.pos
	}

	return c.src.ReadFull(b)
}
