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
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Anchor string used to detect the legacy DMI entry point.
var magicDMI = []byte("_DMI_")

// Legacy BIOS area searched for the DMI entry point.
const (
	scanStart = 0xf0000
	scanEnd   = 0xfffff
	scanStep  = 16

	// entryPointLen is the length of the legacy DMI entry point.
	entryPointLen = 15
)

// An EntryPoint is the legacy DMI entry point, which announces the location
// and size of the structure table.
type EntryPoint struct {
	Anchor                string
	Checksum              uint8
	StructureTableLength  uint16
	StructureTableAddress uint32
	NumberStructures      uint16
	BCDRevision           uint8

	// Address is the physical address the entry point was found at.
	Address uint64
}

// Version returns the DMI version.  Both values are zero if the entry point
// does not specify a version; see VersionKnown.
func (ep *EntryPoint) Version() (major, minor int) {
	return int(ep.BCDRevision >> 4), int(ep.BCDRevision & 0x0f)
}

// VersionKnown reports whether the entry point carries a version.
func (ep *EntryPoint) VersionKnown() bool { return ep.BCDRevision != 0 }

// A Table describes the location and size of a structure table.
type Table struct {
	Address uint32
	Length  uint16
	Count   uint16
}

// Table returns the structure table announced by the entry point.
func (ep *EntryPoint) Table() Table {
	return Table{
		Address: ep.StructureTableAddress,
		Length:  ep.StructureTableLength,
		Count:   ep.NumberStructures,
	}
}

// Locate scans the legacy BIOS area of src for a valid DMI entry point.
//
// Anchors with an invalid checksum or no table address are skipped.  If the area is exhausted,
// ErrTableNotFound is returned.  I/O errors abort the scan.
func Locate(src ByteSource, log logrus.FieldLogger) (*EntryPoint, error) {
	log = discardLogger(log)

	b := make([]byte, entryPointLen)
	for i := 0; i < (scanEnd-scanStart)/scanStep; i++ {
		addr := uint64(scanStart + i*scanStep)

		if err := src.Seek(addr); err != nil {
			return nil, err
		}
		if err := src.ReadFull(b); err != nil {
			return nil, err
		}

		if !bytes.HasPrefix(b, magicDMI) {
			continue
		}

		ep, err := parseEntryPoint(b)
		if err != nil {
			log.WithField("addr", fmt.Sprintf("%#x", addr)).
				Debugf("skipping DMI anchor: %v", err)
			continue
		}

		// An anchor without a table cannot be walked; another one may follow.
		if ep.StructureTableAddress == 0 {
			log.WithField("addr", fmt.Sprintf("%#x", addr)).
				Debug("skipping DMI anchor with no table address")
			continue
		}

		ep.Address = addr
		return ep, nil
	}

	return nil, ErrTableNotFound
}

// parseEntryPoint parses an EntryPoint from b.
func parseEntryPoint(b []byte) (*EntryPoint, error) {
	if l := len(b); l < entryPointLen {
		return nil, fmt.Errorf("expected DMI entry point length of at least %d, but got: %d", entryPointLen, l)
	}
	b = b[:entryPointLen]

	if !bytes.Equal(b[0:5], magicDMI) {
		return nil, fmt.Errorf("incorrect DMI magic in entry point: %v", b[0:5])
	}

	// Checksum occurs at index 5, compute and verify it.
	const chkIndex = 5
	chk := b[chkIndex]
	if err := checksum(chk, chkIndex, b); err != nil {
		return nil, err
	}

	return &EntryPoint{
		Anchor:                string(b[0:5]),
		Checksum:              chk,
		StructureTableLength:  binary.LittleEndian.Uint16(b[6:8]),
		StructureTableAddress: binary.LittleEndian.Uint32(b[8:12]),
		NumberStructures:      binary.LittleEndian.Uint16(b[12:14]),
		BCDRevision:           b[14],
	}, nil
}

// checksum computes the checksum of b using the starting value of start, and
// skipping the checksum byte which occurs at index chkIndex.
//
// checksum assumes that b has already had its bounds checked.
func checksum(start uint8, chkIndex int, b []byte) error {
	chk := start
	for i := range b {
		// Checksum computation does not include index of checksum byte.
		if i == chkIndex {
			continue
		}

		chk += b[i]
	}

	if chk != 0 {
		return fmt.Errorf("invalid entry point checksum %#02x from initial checksum %#02x", chk, start)
	}

	return nil
}
