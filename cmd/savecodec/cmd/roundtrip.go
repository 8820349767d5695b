// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRoundtripCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roundtrip [file]",
		Short: "check that save data survives decode and re-encode",
		Long: `roundtrip decodes save data, encodes the record again in the same format and
with the same version tag, decodes the result and prints whether both records
are equal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: mkRunE(c, runRoundtrip),
	}
	addSchemaFlags(cmd.Flags())
	addDataFlags(cmd.Flags())
	return cmd
}

func runRoundtrip(cmd *Command, args []string) error {
	cc, err := loadCodec(cmd)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	raw, version, err := unwrapData(cmd, data)
	if err != nil {
		return err
	}
	first, err := cc.Decode(raw)
	if err != nil {
		return err
	}

	encoded, err := cc.Encode(first)
	if err != nil {
		return err
	}
	wrapped, err := wrapData(cmd, encoded, version)
	if err != nil {
		return err
	}
	raw, _, err = unwrapData(cmd, wrapped)
	if err != nil {
		return err
	}
	second, err := cc.Decode(raw)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), first.Equal(second))
	return nil
}
