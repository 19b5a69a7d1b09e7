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

// Command lsdimms lists memory DIMM information from the DMI table.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"

	"github.com/yywing/go-dmitable/smbios"
)

func main() {
	os.Exit(run(afero.NewOsFs(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(fs afero.Fs, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("lsdimms", flag.ContinueOnError)
	flags.SetOutput(stderr)
	mem := flags.String("mem", smbios.DevMem, "physical memory device or memory image `path` to scan")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	log := logrus.New()
	log.SetOutput(stderr)

	src, err := smbios.OpenMemory(fs, *mem)
	if err != nil {
		log.Errorf("failed to open physical memory: %v", err)
		return 1
	}
	defer src.Close()

	ep, err := smbios.Locate(src, log)
	if err != nil {
		log.Errorf("failed to locate DMI table: %v", err)
		return 1
	}

	major, minor := ep.Version()
	fmt.Fprintf(stdout, "DMI %d.%d\n", major, minor)

	// Only look at memory devices.
	isMemory := func(h smbios.Header) bool { return h.Type == smbios.TypeMemoryDevice }

	_, err = smbios.DecodeTable(src, ep.Table(), log, isMemory, func(info smbios.Info) error {
		md, ok := info.(*smbios.MemoryDevice)
		if !ok {
			return nil
		}

		if !md.Installed() {
			fmt.Fprintf(stdout, "[% 3s] empty\n", md.DeviceLocator)
			return nil
		}

		fmt.Fprintf(stdout, "[% 3s] %s: %s\n", md.DeviceLocator, md.FormFactor, md.SizeString())
		return nil
	})
	if err != nil {
		log.Errorf("failed to walk DMI table: %v", err)
		return 1
	}

	return 0
}
