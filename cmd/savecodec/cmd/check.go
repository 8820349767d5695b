// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aaronlindsay879/savecodec/schema"
)

func newCheckCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "validate a schema and print its layout",
		Long: `check parses and compiles a schema, then prints its byte order, every
composite type and the root fields that form the shared context.`,
		Args: cobra.NoArgs,
		RunE: mkRunE(c, runCheck),
	}
	addSchemaFlags(cmd.Flags())
	return cmd
}

func runCheck(cmd *Command, args []string) error {
	cc, err := loadCodec(cmd)
	if err != nil {
		return err
	}
	s := cc.Schema()
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "schema %s (%s)\n", s.Root.Name, s.Endianness)

	var ctx []string
	for _, f := range s.ContextFields() {
		ctx = append(ctx, f.ID)
	}
	if len(ctx) == 0 {
		fmt.Fprintln(w, "context: (empty)")
	} else {
		fmt.Fprintf(w, "context: %s\n", strings.Join(ctx, ", "))
	}

	for _, name := range s.TypeOrder {
		printType(w, s.Types[name])
	}
	printType(w, s.Root)
	return nil
}

func printType(w io.Writer, t *schema.CompositeType) {
	fmt.Fprintf(w, "type %s\n", t.Name)
	for i := range t.Fields {
		fmt.Fprintf(w, "  %s\n", t.Fields[i].String())
	}
}
