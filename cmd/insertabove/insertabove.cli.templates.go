package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameTemplates,
		Short: "Manage templates in the configured storage",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   CmdNameList,
			Short: "List stored template names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEnv(cmd, g, func(env *cliEnv) error {
					names, err := env.engine.Templates(cmd.Context())
					if err != nil {
						return withExitCode(ExitCodeError, ErrMsgStorageFailed, err)
					}
					for _, name := range names {
						fmt.Fprintln(cmd.OutOrStdout(), name)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   CmdNameGet + " <name>",
			Short: "Print the source of a stored template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, g, func(env *cliEnv) error {
					tmpl, err := env.engine.Storage().Get(cmd.Context(), args[0])
					if err != nil {
						return withExitCode(ExitCodeError, ErrMsgStorageFailed, err)
					}
					_, err = io.WriteString(cmd.OutOrStdout(), tmpl.Source)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   CmdNamePut + " <name> <file>",
			Short: "Store a template read from file (\"-\" for stdin)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				var (
					source []byte
					err    error
				)
				if args[1] == InputSourceStdin {
					source, err = io.ReadAll(cmd.InOrStdin())
				} else {
					source, err = os.ReadFile(args[1])
				}
				if err != nil {
					return withExitCode(ExitCodeInputError, ErrMsgReadFileFailed, err)
				}

				return withEnv(cmd, g, func(env *cliEnv) error {
					if err := env.engine.RegisterTemplate(cmd.Context(), args[0], string(source)); err != nil {
						return withExitCode(ExitCodeError, ErrMsgStorageFailed, err)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   CmdNameDelete + " <name>",
			Short: "Remove a stored template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, g, func(env *cliEnv) error {
					if err := env.engine.Storage().Delete(cmd.Context(), args[0]); err != nil {
						return withExitCode(ExitCodeError, ErrMsgStorageFailed, err)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

// withEnv opens the engine for the duration of fn.
func withEnv(cmd *cobra.Command, g *globalFlags, fn func(env *cliEnv) error) error {
	env, err := g.open(cmd.ErrOrStderr())
	if err != nil {
		return withExitCode(ExitCodeError, ErrMsgSetupFailed, err)
	}
	defer env.Close()
	return fn(env)
}
