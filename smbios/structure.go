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
)

// headerLen is the length of the Header structure.
const headerLen = 4

// A Header is a Structure's header.
type Header struct {
	Type   uint8
	Length uint8
	Handle uint16
}

// A Structure is an SMBIOS structure.
type Structure struct {
	Header    Header
	Formatted []byte
	Strings   []string
}

// newStructure parses a Structure from the bytes captured for one record.
// The returned Structure does not retain b.
func newStructure(b []byte) (*Structure, error) {
	if len(b) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes captured", ErrTruncatedRecord, len(b))
	}

	h := Header{
		Type:   b[0],
		Length: b[1],
		Handle: binary.LittleEndian.Uint16(b[2:4]),
	}
	if h.Length < headerLen {
		return nil, fmt.Errorf("%w: type %d handle %#04x has length %d", ErrMalformedRecord, h.Type, h.Handle, h.Length)
	}

	end := int(h.Length)
	if end > len(b) {
		end = len(b)
	}

	s := &Structure{
		Header:  h,
		Strings: parseStrings(b[end:]),
	}

	// Make a copy to free up the walker's buffer.
	if fb := b[headerLen:end]; len(fb) > 0 {
		s.Formatted = make([]byte, len(fb))
		copy(s.Formatted, fb)
	}

	return s, nil
}

// parseStrings parses a string-set, if present.
func parseStrings(b []byte) []string {
	var ss []string
	for len(b) > 0 {
		i := bytes.IndexByte(b, 0x00)
		switch {
		case i == 0:
			// Empty string terminates the set.
			return ss
		case i < 0:
			// Unterminated string at the end of the captured bytes.
			return append(ss, string(b))
		}

		ss = append(ss, string(b[:i]))
		b = b[i+1:]
	}

	return ss
}

// GetString returns the string referenced by the 1-based index i.  Index zero
// and indices past the end of the string-set yield the empty string.
func (s *Structure) GetString(i uint8) string {
	if i == 0 || int(i) > len(s.Strings) {
		return ""
	}

	return s.Strings[i-1]
}

// field returns the n bytes at offset off, measured from the start of the
// structure including its header.
func (s *Structure) field(off, n int) ([]byte, error) {
	i := off - headerLen
	if i < 0 || i+n > len(s.Formatted) {
		return nil, fmt.Errorf("%w: type %d handle %#04x: %d byte field at offset %#02x, have %d bytes",
			ErrTruncatedRecord, s.Header.Type, s.Header.Handle, n, off, len(s.Formatted)+headerLen)
	}

	return s.Formatted[i : i+n], nil
}

func (s *Structure) byteAt(off int) (uint8, error) {
	b, err := s.field(off, 1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (s *Structure) uint16At(off int) (uint16, error) {
	b, err := s.field(off, 2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

func (s *Structure) uint32At(off int) (uint32, error) {
	b, err := s.field(off, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// stringAt resolves the string whose index is stored at offset off.
func (s *Structure) stringAt(off int) (string, error) {
	i, err := s.byteAt(off)
	if err != nil {
		return "", err
	}

	return s.GetString(i), nil
}
