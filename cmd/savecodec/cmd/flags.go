// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	flagChecksum    flagName = "checksum"
	flagCompact     flagName = "compact"
	flagFormat      flagName = "format"
	flagLenient     flagName = "lenient-counts"
	flagSaveVersion flagName = "save-version"
	flagSchema      flagName = "schema"
	flagVerbose     flagName = "verbose"
)

func addGlobalFlags(f *pflag.FlagSet) {
	f.BoolP(string(flagVerbose), "v", false,
		"log every decoded and encoded field")
}

func addSchemaFlags(f *pflag.FlagSet) {
	f.StringP(string(flagSchema), "s", "",
		"YAML or JSON schema file")
	f.String(string(flagCompact), "",
		`compact schema such as "<H:version B:count 3I:ids"`)
	f.Bool(string(flagLenient), false,
		"encode repeated fields by list length without checking their count expression")
}

func addDataFlags(f *pflag.FlagSet) {
	f.String(string(flagFormat), formatEnvelope,
		"save data format (envelope|raw|hex)")
	f.Bool(string(flagChecksum), false,
		"save data carries a trailing big-endian CRC32 of the record bytes")
}

type flagName string

// ensureAdded detects if a flag is being used without it first being
// added to the flagSet.
func (f flagName) ensureAdded(cmd *Command) {
	if cmd.Flags().Lookup(string(f)) == nil {
		panic(fmt.Sprintf("Cmd %q uses flag %q without adding it", cmd.Name(), f))
	}
}

func (f flagName) Bool(cmd *Command) bool {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetBool(string(f))
	return v
}

func (f flagName) Int(cmd *Command) int {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetInt(string(f))
	return v
}

func (f flagName) String(cmd *Command) string {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetString(string(f))
	return v
}
