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

// Command dmitable locates the legacy DMI table in physical memory and
// displays slot, on board device, memory device and IPMI information.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"

	"github.com/yywing/go-dmitable/smbios"
)

var typeGroups = map[string][]uint8{
	"slot":    {smbios.TypeSystemSlot},
	"onboard": {smbios.TypeOnBoardDevices},
	"memory":  {smbios.TypeMemoryDevice},
	"ipmi":    {smbios.TypeIPMIDevice},
}

func main() {
	os.Exit(run(afero.NewOsFs(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(fs afero.Fs, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("dmitable", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		mem   = flags.String("mem", smbios.DevMem, "physical memory device or memory image `path` to scan")
		types = flags.StringSliceP("type", "t", nil, "only display structures of `TYPE`: a type number or one of slot, onboard, memory, ipmi")
		debug = flags.BoolP("debug", "d", false, "enable debug logging")
	)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	log := logrus.New()
	log.SetOutput(stderr)
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	filter, err := parseTypeFilter(*types)
	if err != nil {
		log.Errorf("failed to parse type filter: %v", err)
		return 2
	}

	src, err := smbios.OpenMemory(fs, *mem)
	if err != nil {
		log.Errorf("failed to open physical memory: %v", err)
		return 1
	}
	// Be sure to close the source!
	defer src.Close()

	ep, err := smbios.Locate(src, log)
	if err != nil {
		log.Errorf("failed to locate DMI table: %v", err)
		return 1
	}

	if ep.VersionKnown() {
		major, minor := ep.Version()
		fmt.Fprintf(stdout, "DMI %d.%d present.\n", major, minor)
	} else {
		fmt.Fprintln(stdout, "DMI present.")
	}
	fmt.Fprintf(stdout, "%d structures occupying %d bytes.\n", ep.NumberStructures, ep.StructureTableLength)
	fmt.Fprintf(stdout, "DMI table at 0x%08X.\n\n", ep.StructureTableAddress)

	var match func(smbios.Header) bool
	if len(filter) > 0 {
		match = func(h smbios.Header) bool { return filter[h.Type] }
	}

	stats, err := smbios.DecodeTable(src, ep.Table(), log, match, func(info smbios.Info) error {
		h := info.StructureHeader()
		fmt.Fprintf(stdout, "Handle 0x%04X, DMI type %d, %d bytes\n", h.Handle, h.Type, h.Length)
		for _, f := range info.Fields() {
			fmt.Fprintf(stdout, "\t%s\n", f)
		}
		fmt.Fprintln(stdout)

		return nil
	})

	log.WithFields(logrus.Fields{
		"records":   stats.Records,
		"skipped":   stats.Skipped,
		"truncated": stats.Truncated,
	}).Debug("walked DMI table")

	if err != nil {
		log.Errorf("failed to walk DMI table: %v", err)
		return 1
	}

	return 0
}

// parseTypeFilter parses the --type arguments and returns the set of types
// that should be displayed.
func parseTypeFilter(typeStrings []string) (map[uint8]bool, error) {
	types := map[uint8]bool{}
	for _, ts := range typeStrings {
		if tg, ok := typeGroups[strings.ToLower(ts)]; ok {
			for _, t := range tg {
				types[t] = true
			}
			continue
		}

		u, err := strconv.ParseUint(ts, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid type: %s", ts)
		}
		types[uint8(u)] = true
	}

	return types, nil
}
