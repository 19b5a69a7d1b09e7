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
	"fmt"
	"strconv"
)

// Structure types understood by Decode.
const (
	TypeSystemSlot     = 9
	TypeOnBoardDevices = 10
	TypeMemoryDevice   = 17
	TypeIPMIDevice     = 38
)

// A Field is one labeled, human-readable value of a decoded structure.
type Field struct {
	Label string
	Value string
}

func (f Field) String() string { return f.Label + ": " + f.Value }

// Info is a decoded structure.  Its concrete type is one of *SystemSlot,
// *OnBoardDevice, *MemoryDevice, *IPMIDevice or *OtherStructure.
type Info interface {
	StructureHeader() Header
	Fields() []Field
}

var (
	_ Info = &SystemSlot{}
	_ Info = &OnBoardDevice{}
	_ Info = &MemoryDevice{}
	_ Info = &IPMIDevice{}
	_ Info = &OtherStructure{}
)

// SystemSlot is a System Slot (type 9) structure.
type SystemSlot struct {
	Header       Header
	Designation  string
	SlotType     SlotType
	DataBusWidth BusWidth
}

func parseSystemSlot(s *Structure) (Info, error) {
	designation, err := s.stringAt(0x04)
	if err != nil {
		return nil, err
	}
	slotType, err := s.byteAt(0x05)
	if err != nil {
		return nil, err
	}
	width, err := s.byteAt(0x06)
	if err != nil {
		return nil, err
	}

	return &SystemSlot{
		Header:       s.Header,
		Designation:  designation,
		SlotType:     SlotType(slotType),
		DataBusWidth: BusWidth(width),
	}, nil
}

// StructureHeader implements Info.
func (ss *SystemSlot) StructureHeader() Header { return ss.Header }

// Fields implements Info.
func (ss *SystemSlot) Fields() []Field {
	return []Field{
		{Label: "Slot designation", Value: ss.Designation},
		{Label: "Slot type", Value: ss.SlotType.String()},
		{Label: "Slot data bus width", Value: ss.DataBusWidth.String()},
	}
}

// OnBoardDevice is an On Board Devices (type 10) structure.  Only the last
// device entry of the structure is decoded.
type OnBoardDevice struct {
	Header      Header
	Devices     int
	DeviceType  OnBoardDeviceType
	Enabled     bool
	Description string
}

// onBoardDeviceEnabled is set in the device type when the device is enabled.
const onBoardDeviceEnabled = 0x80

func parseOnBoardDevice(s *Structure) (Info, error) {
	// Each device is a type byte followed by a string index.
	n := (int(s.Header.Length) - headerLen) / 2
	if n < 1 {
		return nil, fmt.Errorf("%w: type %d handle %#04x has no device entries",
			ErrTruncatedRecord, s.Header.Type, s.Header.Handle)
	}

	off := headerLen + 2*(n-1)
	typ, err := s.byteAt(off)
	if err != nil {
		return nil, err
	}
	desc, err := s.stringAt(off + 1)
	if err != nil {
		return nil, err
	}

	return &OnBoardDevice{
		Header:      s.Header,
		Devices:     n,
		DeviceType:  OnBoardDeviceType(typ &^ onBoardDeviceEnabled),
		Enabled:     typ&onBoardDeviceEnabled != 0,
		Description: desc,
	}, nil
}

// StructureHeader implements Info.
func (d *OnBoardDevice) StructureHeader() Header { return d.Header }

// Fields implements Info.
func (d *OnBoardDevice) Fields() []Field {
	status := "disabled"
	if d.Enabled {
		status = "enabled"
	}

	return []Field{
		{Label: "On board device", Value: d.Description},
		{Label: "Device type", Value: d.DeviceType.String()},
		{Label: "Device status", Value: status},
	}
}

// Memory device sizes with a special meaning.
const (
	sizeNotInstalled = 0x0000
	sizeUnknown      = 0xffff
	sizeExtended     = 0x7fff

	// sizeKilobytes is set when the size is given in kilobytes rather than
	// megabytes.
	sizeKilobytes = 0x8000
)

// MemoryDevice is a Memory Device (type 17) structure.
type MemoryDevice struct {
	Header        Header
	DeviceLocator string
	BankLocator   string
	FormFactor    FormFactor
	MemoryType    MemoryType
	DataWidth     uint16

	// RawSize is the size field as stored in the structure.
	RawSize uint16
	// SizeKB is the decoded size in kilobytes.  It is zero when the size is
	// unknown or no memory is installed.
	SizeKB uint64
}

func parseMemoryDevice(s *Structure) (Info, error) {
	var (
		md  = &MemoryDevice{Header: s.Header}
		err error
	)

	if md.DeviceLocator, err = s.stringAt(0x10); err != nil {
		return nil, err
	}
	if md.BankLocator, err = s.stringAt(0x11); err != nil {
		return nil, err
	}

	ff, err := s.byteAt(0x0e)
	if err != nil {
		return nil, err
	}
	md.FormFactor = FormFactor(ff)

	mt, err := s.byteAt(0x12)
	if err != nil {
		return nil, err
	}
	md.MemoryType = MemoryType(mt)

	if md.DataWidth, err = s.uint16At(0x0a); err != nil {
		return nil, err
	}
	if md.RawSize, err = s.uint16At(0x0c); err != nil {
		return nil, err
	}

	md.SizeKB = memorySizeKB(s, md.RawSize)

	return md, nil
}

// memorySizeKB converts the size field of a memory device to kilobytes.
func memorySizeKB(s *Structure, size uint16) uint64 {
	switch {
	case size == sizeNotInstalled, size == sizeUnknown:
		return 0
	case size == sizeExtended:
		// Sizes of 32GB or greater are stored in megabytes in the extended
		// size field, present since SMBIOS 2.7.  Bit 31 is reserved.
		if ext, err := s.uint32At(0x1c); err == nil {
			return uint64(ext&0x7fffffff) * 1024
		}

		return uint64(size) * 1024
	case size&sizeKilobytes != 0:
		return uint64(size &^ sizeKilobytes)
	default:
		return uint64(size) * 1024
	}
}

// Installed reports whether memory is installed in the device.
func (md *MemoryDevice) Installed() bool { return md.RawSize != sizeNotInstalled }

// SizeKnown reports whether the size of the device is known.
func (md *MemoryDevice) SizeKnown() bool { return md.RawSize != sizeUnknown }

// SizeString formats the size of the device.
func (md *MemoryDevice) SizeString() string {
	switch {
	case !md.Installed():
		return "not installed"
	case !md.SizeKnown():
		return "unknown"
	case md.SizeKB%1024 != 0:
		return fmt.Sprintf("%d KB", md.SizeKB)
	default:
		return fmt.Sprintf("%d MB", md.SizeKB/1024)
	}
}

// StructureHeader implements Info.
func (md *MemoryDevice) StructureHeader() Header { return md.Header }

// Fields implements Info.
func (md *MemoryDevice) Fields() []Field {
	return []Field{
		{Label: "Memory slot device locator", Value: md.DeviceLocator},
		{Label: "Memory slot bank locator", Value: md.BankLocator},
		{Label: "Memory device form factor", Value: md.FormFactor.String()},
		{Label: "Memory device type", Value: md.MemoryType.String()},
		{Label: "Memory device data width", Value: strconv.Itoa(int(md.DataWidth))},
		{Label: "Memory device size", Value: md.SizeString()},
	}
}

// IPMIDevice is an IPMI Device Information (type 38) structure.
type IPMIDevice struct {
	Header        Header
	InterfaceType IPMIInterfaceType
	BaseAddress   uint16
	IRQ           uint8
}

func parseIPMIDevice(s *Structure) (Info, error) {
	typ, err := s.byteAt(0x04)
	if err != nil {
		return nil, err
	}
	addr, err := s.uint16At(0x08)
	if err != nil {
		return nil, err
	}
	irq, err := s.byteAt(0x11)
	if err != nil {
		return nil, err
	}

	return &IPMIDevice{
		Header:        s.Header,
		InterfaceType: IPMIInterfaceType(typ),
		BaseAddress:   addr,
		IRQ:           irq,
	}, nil
}

// StructureHeader implements Info.
func (d *IPMIDevice) StructureHeader() Header { return d.Header }

// Fields implements Info.
func (d *IPMIDevice) Fields() []Field {
	return []Field{
		{Label: "IPMI interface type", Value: d.InterfaceType.String()},
		{Label: "Interface base address", Value: strconv.Itoa(int(d.BaseAddress))},
		{Label: "Interface IRQ", Value: strconv.Itoa(int(d.IRQ))},
	}
}

// OtherStructure is a structure of a type Decode does not understand.
type OtherStructure struct {
	Header Header
}

// StructureHeader implements Info.
func (o *OtherStructure) StructureHeader() Header { return o.Header }

// Fields implements Info.
func (o *OtherStructure) Fields() []Field {
	return []Field{{
		Label: "Other structure",
		Value: fmt.Sprintf("type %d", o.Header.Type),
	}}
}
