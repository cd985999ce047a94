package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newFormatsCmd(g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   CmdNameFormats,
		Short: "List the media categories and the tag each one renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != OutputFormatText && format != OutputFormatJSON {
				return withExitCode(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", format))
			}

			env, err := g.open(cmd.ErrOrStderr())
			if err != nil {
				return withExitCode(ExitCodeError, ErrMsgSetupFailed, err)
			}
			defer env.Close()

			formatter := env.engine.Formatter()
			out := cmd.OutOrStdout()

			if format == OutputFormatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", JSONIndent)
				return enc.Encode(formatter.Formats())
			}

			formats := formatter.Formats()
			for _, category := range formatter.Categories() {
				fmt.Fprintf(out, FmtFormatLine, category, formats[category])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, "output format: text or json")
	return cmd
}
