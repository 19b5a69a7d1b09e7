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
	"io"

	"github.com/sirupsen/logrus"
)

var (
	// ErrTableNotFound is returned when no valid DMI anchor exists in the
	// scanned address window.
	ErrTableNotFound = errors.New("DMI table not found")

	// ErrTableAbsent is returned when an anchor announces a table at
	// address zero.
	ErrTableAbsent = errors.New("DMI table absent")

	// ErrMalformedRecord is returned when a structure declares a length
	// shorter than its own header; the walk cannot safely continue.
	ErrMalformedRecord = errors.New("malformed DMI structure")

	// ErrTruncatedRecord is returned when a field lies beyond the bytes
	// captured for a structure.
	ErrTruncatedRecord = errors.New("truncated DMI structure")
)

// discardLogger returns log, or a logger which discards everything if log
// is nil.
func discardLogger(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}

	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
