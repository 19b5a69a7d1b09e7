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
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// maxRecordSize is the size of the buffer used to capture one structure,
// including its string-set.  Longer structures are truncated.
const maxRecordSize = 8 * 1024

// Stats counts the structures visited by a Walker.
type Stats struct {
	// Records is the number of structures walked.
	Records int
	// Skipped is the number of structures not decoded because they extend
	// past the declared table length.
	Skipped int
	// Truncated is the number of structures whose fields could not be
	// decoded from the captured bytes.
	Truncated int
}

// A Walker walks the structures of a DMI table.
type Walker struct {
	src   ByteSource
	table Table
	log   logrus.FieldLogger
	b     []byte
	stats Stats
}

// NewWalker creates a Walker which reads the structures of t from src.
// If log is nil, nothing is logged.
func NewWalker(src ByteSource, t Table, log logrus.FieldLogger) *Walker {
	return &Walker{
		src:   src,
		table: t,
		log:   discardLogger(log),
		b:     make([]byte, maxRecordSize),
	}
}

// Stats returns the counters accumulated by Walk.
func (w *Walker) Stats() Stats { return w.stats }

// Walk calls fn for each structure of the table until the declared number
// of structures has been walked or the declared table length is consumed.
//
// Structures which extend past the table length are skipped without calling
// fn.  An error from fn stops the walk and is returned as is.
func (w *Walker) Walk(fn func(s *Structure) error) error {
	if w.table.Address == 0 {
		return ErrTableAbsent
	}

	var (
		base   = uint64(w.table.Address)
		length = uint64(w.table.Length)
		cur    = base
	)

	for n := 0; n < int(w.table.Count) && cur-base+headerLen <= length; n++ {
		h, err := w.parseHeader(cur)
		if err != nil {
			return err
		}

		// A structure shorter than its header cannot be stepped over.
		if h.Length < headerLen {
			return fmt.Errorf("%w: type %d handle %#04x at %#x has length %d",
				ErrMalformedRecord, h.Type, h.Handle, cur, h.Length)
		}

		end := cur + uint64(h.Length)
		next, err := w.skipStrings(base, length, end)
		if err != nil {
			return err
		}

		w.stats.Records++

		if end-base < length-1 {
			s, err := w.parseStructure(cur, min(next, base+length))
			if err != nil {
				return err
			}

			if err := fn(s); err != nil {
				return err
			}
		} else {
			w.stats.Skipped++
			w.log.WithFields(logrus.Fields{
				"type":   h.Type,
				"handle": fmt.Sprintf("%#04x", h.Handle),
				"addr":   fmt.Sprintf("%#x", cur),
			}).Warn("skipping DMI structure past end of table")
		}

		cur = next
	}

	return nil
}

// parseHeader reads the Header of the structure at addr.
func (w *Walker) parseHeader(addr uint64) (*Header, error) {
	b := w.b[:headerLen]
	if err := w.read(addr, b); err != nil {
		return nil, err
	}

	return &Header{
		Type:   b[0],
		Length: b[1],
		Handle: binary.LittleEndian.Uint16(b[2:4]),
	}, nil
}

// skipStrings finds the end of the string-set which starts at addr, without
// reading past the table.  It returns the address of the next structure.
func (w *Walker) skipStrings(base, length, addr uint64) (uint64, error) {
	b := w.b[:2]
	for addr-base+2 <= length {
		if err := w.read(addr, b); err != nil {
			return 0, err
		}

		// Two null bytes in a row end the string-set.
		if b[0] == 0x00 && b[1] == 0x00 {
			break
		}

		addr++
	}

	return addr + 2, nil
}

// parseStructure captures the bytes in [start, end) and parses them as a
// Structure.
func (w *Walker) parseStructure(start, end uint64) (*Structure, error) {
	n := end - start
	if n > uint64(len(w.b)) {
		w.log.WithField("addr", fmt.Sprintf("%#x", start)).
			Debugf("DMI structure of %d bytes truncated to %d", n, len(w.b))
		n = uint64(len(w.b))
	}

	b := w.b[:n]
	if err := w.read(start, b); err != nil {
		return nil, err
	}

	return newStructure(b)
}

// read clears b and fills it from addr, so nothing from a previous
// structure remains visible in b.
func (w *Walker) read(addr uint64, b []byte) error {
	clear(b)

	if err := w.src.Seek(addr); err != nil {
		return err
	}

	return w.src.ReadFull(b)
}
