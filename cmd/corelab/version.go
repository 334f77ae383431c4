package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"corelab/internal/version"
)

func newVersionCmd() *cobra.Command {
	var detailed bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := newPrinter(outputFmt)
			if err != nil {
				return err
			}
			info, err := version.GetInfo()
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), info, func(w io.Writer) error {
				if detailed {
					_, err := fmt.Fprintln(w, version.GetDetailedVersion())
					return err
				}
				_, err := fmt.Fprintln(w, version.GetFormattedVersion())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Include build details")
	return cmd
}
