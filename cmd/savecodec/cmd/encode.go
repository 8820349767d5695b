// SPDX-License-Identifier: MIT

package cmd

import (
	"github.com/spf13/cobra"
)

func newEncodeCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [file.json]",
		Short: "encode a JSON record into save data",
		Long: `encode reads a JSON object in the layout printed by decode, encodes it
with the schema and prints the save data in the chosen format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: mkRunE(c, runEncode),
	}
	addSchemaFlags(cmd.Flags())
	addDataFlags(cmd.Flags())
	cmd.Flags().Int(string(flagSaveVersion), 0, "version tag written into the save envelope")
	return cmd
}

func runEncode(cmd *Command, args []string) error {
	cc, err := loadCodec(cmd)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	rec, err := cc.RecordFromJSON(data)
	if err != nil {
		return err
	}
	raw, err := cc.Encode(rec)
	if err != nil {
		return err
	}
	out, err := wrapData(cmd, raw, flagSaveVersion.Int(cmd))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
