// SPDX-License-Identifier: MIT

package cmd

import (
	"github.com/spf13/cobra"
)

func newDecodeCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "decode save data to JSON",
		Long: `decode reads save data from a file or stdin, decodes the record it holds
and prints it as JSON with fields in schema order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: mkRunE(c, runDecode),
	}
	addSchemaFlags(cmd.Flags())
	addDataFlags(cmd.Flags())
	return cmd
}

func runDecode(cmd *Command, args []string) error {
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
	rec, n, err := cc.DecodePrefix(raw)
	if err != nil {
		return err
	}
	cmd.log.Debug("decoded save", "version", version, "bytes", n, "trailing", len(raw)-n)
	return writeJSON(cmd.OutOrStdout(), rec)
}
