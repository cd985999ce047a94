package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/itsatony/go-insertabove"
	"github.com/spf13/cobra"
)

// versionOutput represents JSON output for version
type versionOutput struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: "Print the version number of " + CLIName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch format {
			case OutputFormatText:
				fmt.Fprintf(out, FmtVersionText, CLIName, insertabove.Version, runtime.Version())
				return nil
			case OutputFormatJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", JSONIndent)
				return enc.Encode(versionOutput{Version: insertabove.Version, GoVersion: runtime.Version()})
			}
			return withExitCode(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", format))
		},
	}

	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, "output format: text or json")
	return cmd
}
