package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speakeasy-api/jaxrsflow/analysis"
	"github.com/speakeasy-api/jaxrsflow/pkg/listing"
)

type dumpOptions struct {
	Reduced  bool
	Columns  []string
	NoHeader bool
}

func newDumpCmd() *cobra.Command {
	dopts := &dumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump <fixture> <class> <method>",
		Short: "Print the instructions of one method",
		Long: `Dump prints the instruction list of a method found in the fixture, with the
operand stack depth after each instruction. With --reduced the list is first
reduced the way the analysis reduces it.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, dopts, args)
		},
	}
	cmd.Flags().BoolVar(&dopts.Reduced, "reduced", false, "Drop dead stores before printing")
	cmd.Flags().StringSliceVar(&dopts.Columns, "columns", nil, "Columns to print: index, instruction, pops, pushes, depth, targets")
	cmd.Flags().BoolVar(&dopts.NoHeader, "no-header", false, "Omit the header line")
	return cmd
}

func runDump(cmd *cobra.Command, dopts *dumpOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fx, err := loadFixtures(ctx, args[:1])
	if err != nil {
		return errWithCode(err, exitError)
	}
	m, ok := fx.Lookup(args[1], args[2])
	if !ok {
		return errWithCode(fmt.Errorf("method %s.%s not found", args[1], args[2]), exitError)
	}

	code := m.Instructions
	if dopts.Reduced {
		code = analysis.Reduce(code)
	}
	out, err := listing.Format(code, listing.Config{Columns: dopts.Columns, NoHeader: dopts.NoHeader})
	if err != nil {
		return errWithCode(err, exitError)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%d instructions)\n", m.Identifier, len(code))
	_, err = fmt.Fprint(w, out)
	return err
}
