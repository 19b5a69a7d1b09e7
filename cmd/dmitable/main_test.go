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

package main

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// slotTable is a table holding one PCI system slot, padded to 31 bytes.
var slotTable = func() []byte {
	b := []byte{
		0x09, 0x0c, 0x01, 0x00,
		0x01, 0x06, 0x05, 0x03, 0x04, 0x00, 0x00, 0x00,
		'S', 'L', 'O', 'T', '1', 0x00,
		0x00,
	}

	return append(b, make([]byte, 31-len(b))...)
}()

// makeMemory returns a memory image with a DMI entry point at 0xf0000
// pointing to table at 0x1000.
func makeMemory(table []byte, count uint16, rev uint8) []byte {
	b := make([]byte, 0x100000)

	ep := b[0xf0000 : 0xf0000+15]
	copy(ep, "_DMI_")
	binary.LittleEndian.PutUint16(ep[6:8], uint16(len(table)))
	binary.LittleEndian.PutUint32(ep[8:12], 0x1000)
	binary.LittleEndian.PutUint16(ep[12:14], count)
	ep[14] = rev

	var chk uint8
	for _, c := range ep {
		chk += c
	}
	ep[5] = 0 - chk

	copy(b[0x1000:], table)

	return b
}

func runWith(t *testing.T, mem []byte, args ...string) (int, string, string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	if mem != nil {
		require.NoError(t, afero.WriteFile(fs, "/dev/mem", mem, 0o400))
	}

	var stdout, stderr bytes.Buffer
	code := run(fs, args, &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

func TestRunSystemSlot(t *testing.T) {
	code, stdout, stderr := runWith(t, makeMemory(slotTable, 1, 0x21))
	require.Equal(t, 0, code, "stderr: %s", stderr)

	for _, want := range []string{
		"DMI 2.1 present.",
		"1 structures occupying 31 bytes.",
		"DMI table at 0x00001000.",
		"Handle 0x0001, DMI type 9, 12 bytes",
		"\tSlot designation: SLOT1\n",
		"\tSlot type: PCI\n",
		"\tSlot data bus width: 32 bit\n",
	} {
		require.Contains(t, stdout, want)
	}
}

func TestRunVersionUnspecified(t *testing.T) {
	code, stdout, _ := runWith(t, makeMemory(slotTable, 1, 0))
	require.Equal(t, 0, code)
	require.True(t, strings.HasPrefix(stdout, "DMI present.\n"), "unexpected output: %s", stdout)
}

func TestRunTypeFilter(t *testing.T) {
	table := []byte{
		0x2a, 0x04, 0x01, 0x00,
		0x00,
		0x00,

		0x09, 0x0c, 0x02, 0x00,
		0x01, 0x06, 0x05, 0x03, 0x04, 0x00, 0x00, 0x00,
		'S', 'L', 'O', 'T', '1', 0x00,
		0x00,
	}
	mem := makeMemory(table, 2, 0x21)

	code, stdout, _ := runWith(t, mem, "--type", "slot")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "SLOT1")
	require.NotContains(t, stdout, "type 42")

	code, stdout, _ = runWith(t, mem, "-t", "42")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "Other structure: type 42")
	require.NotContains(t, stdout, "SLOT1")

	code, _, _ = runWith(t, mem, "-t", "bogus")
	require.Equal(t, 2, code)
}

func TestRunMemPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/mem.img", makeMemory(slotTable, 1, 0x21), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(fs, []string{"--mem", "/tmp/mem.img"}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	require.Contains(t, stdout.String(), "SLOT1")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		mem  []byte
		msg  string
	}{
		{
			name: "no memory device",
			msg:  "failed to open physical memory",
		},
		{
			name: "no entry point",
			mem:  make([]byte, 0x100000),
			msg:  "failed to locate DMI table",
		},
		{
			name: "malformed structure",
			mem:  makeMemory([]byte{0x09, 0x02, 0x01, 0x00, 0x00, 0x00}, 1, 0x21),
			msg:  "failed to walk DMI table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runWith(t, tt.mem)
			require.Equal(t, 1, code)
			require.Contains(t, stderr, tt.msg)
		})
	}
}

func TestRunTypeFilterSkipsDecoding(t *testing.T) {
	table := []byte{
		// Truncated on board devices structure.
		0x0a, 0x05, 0x01, 0x00,
		0x85,
		0x00,
		0x00,

		0x09, 0x0c, 0x02, 0x00,
		0x01, 0x06, 0x05, 0x03, 0x04, 0x00, 0x00, 0x00,
		'S', 'L', 'O', 'T', '1', 0x00,
		0x00,
	}
	mem := makeMemory(table, 2, 0x21)

	code, stdout, stderr := runWith(t, mem, "-t", "slot")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "SLOT1")
	require.NotContains(t, stderr, "skipping DMI structure")

	code, _, stderr = runWith(t, mem, "-t", "onboard")
	require.Equal(t, 0, code)
	require.Contains(t, stderr, "skipping DMI structure")
}

func TestParseTypeFilter(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		types map[uint8]bool
		ok    bool
	}{
		{
			name:  "none",
			types: map[uint8]bool{},
			ok:    true,
		},
		{
			name:  "keywords",
			args:  []string{"slot", "ONBOARD", "memory", "ipmi"},
			types: map[uint8]bool{9: true, 10: true, 17: true, 38: true},
			ok:    true,
		},
		{
			name:  "numbers",
			args:  []string{"10", "0x11"},
			types: map[uint8]bool{10: true, 17: true},
			ok:    true,
		},
		{
			name: "out of range",
			args: []string{"256"},
		},
		{
			name: "dmidecode baseboard keyword",
			args: []string{"baseboard"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types, err := parseTypeFilter(tt.args)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			if diff := cmp.Diff(tt.types, types); diff != "" {
				t.Fatalf("unexpected types (-want +got):\n%s", diff)
			}
		})
	}
}
