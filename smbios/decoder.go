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

	"github.com/sirupsen/logrus"
)

// Decode decodes a Structure according to its type.  Structures of types
// other than those listed in this package decode to an *OtherStructure.
//
// If a field lies beyond the bytes of s, an error wrapping
// ErrTruncatedRecord is returned.
func Decode(s *Structure) (Info, error) {
	switch s.Header.Type {
	case TypeSystemSlot:
		return parseSystemSlot(s)
	case TypeOnBoardDevices:
		return parseOnBoardDevice(s)
	case TypeMemoryDevice:
		return parseMemoryDevice(s)
	case TypeIPMIDevice:
		return parseIPMIDevice(s)
	default:
		return &OtherStructure{Header: s.Header}, nil
	}
}

// DecodeTable walks the structure table t on src and calls fn with each
// decoded structure.  If match is not nil, only structures whose Header it
// accepts are decoded; the rest are walked over silently.
//
// Truncated structures are logged and counted, and the walk continues.  Any
// other error stops the walk.  The returned Stats are valid even when an
// error is returned.
func DecodeTable(src ByteSource, t Table, log logrus.FieldLogger, match func(Header) bool, fn func(Info) error) (Stats, error) {
	log = discardLogger(log)

	var (
		w         = NewWalker(src, t, log)
		truncated int
	)

	err := w.Walk(func(s *Structure) error {
		if match != nil && !match(s.Header) {
			return nil
		}

		info, err := Decode(s)
		switch {
		case errors.Is(err, ErrTruncatedRecord):
			truncated++
			log.WithFields(logrus.Fields{
				"type":   s.Header.Type,
				"handle": fmt.Sprintf("%#04x", s.Header.Handle),
			}).Warnf("skipping DMI structure: %v", err)
			return nil
		case err != nil:
			return err
		}

		return fn(info)
	})

	stats := w.Stats()
	stats.Truncated = truncated

	return stats, err
}
