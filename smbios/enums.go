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

// A SlotType is the type of a system slot.
type SlotType uint8

var slotTypes = map[SlotType]string{
	0x01: "other",
	0x02: "other",
	0x03: "ISA",
	0x06: "PCI",
	0x07: "PCMCIA",
	0x0a: "Processor",
	0x0e: "PCI 66 MHz",
	0x0f: "AGP",
	0x10: "AGP 2x",
	0x11: "AGP 4x",
}

// String returns the slot type label, or the empty string if t is not
// recognized.
func (t SlotType) String() string { return slotTypes[t] }

// A BusWidth is the data bus width of a system slot.
type BusWidth uint8

var busWidths = map[BusWidth]string{
	0x01: "other",
	0x02: "other",
	0x05: "32 bit",
	0x06: "64 bit",
}

// String returns the bus width label, or the empty string if w is not
// recognized.
func (w BusWidth) String() string { return busWidths[w] }

// An OnBoardDeviceType is the type of an on board device, without its
// enabled bit.
type OnBoardDeviceType uint8

var onBoardDeviceTypes = map[OnBoardDeviceType]string{
	0x00: "other",
	0x01: "other",
	0x03: "video",
	0x05: "ethernet",
	0x07: "sound",
}

func (t OnBoardDeviceType) String() string { return onBoardDeviceTypes[t] }

// A FormFactor is the form factor of a memory device.
type FormFactor uint8

var formFactors = map[FormFactor]string{
	0x03: "SIMM",
	0x09: "DIMM",
}

func (f FormFactor) String() string { return lookup(formFactors, f, "other") }

// A MemoryType is the type of a memory device.
type MemoryType uint8

var memoryTypes = map[MemoryType]string{
	0x03: "DRAM",
	0x06: "SRAM",
	0x07: "RAM",
	0x08: "ROM",
	0x09: "FLASH",
	0x0a: "EEPROM",
	0x0c: "EPROM",
	0x0f: "SDRAM",
}

func (t MemoryType) String() string { return lookup(memoryTypes, t, "other") }

// An IPMIInterfaceType is the interface type of an IPMI baseboard
// management controller.
type IPMIInterfaceType uint8

var ipmiInterfaceTypes = map[IPMIInterfaceType]string{
	0x01: "kcs",
	0x02: "smic",
	0x03: "bt",
}

func (t IPMIInterfaceType) String() string { return lookup(ipmiInterfaceTypes, t, "unknown") }

func lookup[K comparable](m map[K]string, k K, fallback string) string {
	if s, ok := m[k]; ok {
		return s
	}

	return fallback
}
