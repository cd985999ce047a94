package main

import (
	"encoding/json"
	"errors"
	"io"
	"maps"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// renderFlags holds parsed render command configuration
type renderFlags struct {
	data     string
	dataFile string
	output   string
}

func newRenderCmd(g *globalFlags) *cobra.Command {
	f := &renderFlags{}

	cmd := &cobra.Command{
		Use:   CmdNameRender + " <template>",
		Short: "Render a stored template, or a template read from stdin with \"-\"",
		Example: `  insertabove --dir ./templates render page.html -d '{"title": "Home"}'
  echo '{% insert_handler %}...{% endinsert_handler %}' | insertabove render -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, g, f, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.data, FlagData, FlagDataShort, "", "inline JSON data")
	flags.StringVarP(&f.dataFile, FlagDataFile, FlagDataFileShort, "", "JSON or YAML data file (\"-\" for stdin)")
	flags.StringVarP(&f.output, FlagOutput, FlagOutputShort, FlagDefaultOutput, "output file")
	return cmd
}

func runRender(cmd *cobra.Command, g *globalFlags, f *renderFlags, name string) error {
	stdin := cmd.InOrStdin()

	var source []byte
	if name == InputSourceStdin {
		if f.dataFile == InputSourceStdin {
			return withExitCode(ExitCodeInputError, ErrMsgInvalidData, errors.New("stdin cannot hold both template and data"))
		}
		var err error
		if source, err = io.ReadAll(stdin); err != nil {
			return withExitCode(ExitCodeInputError, ErrMsgReadFileFailed, err)
		}
	}

	data, err := loadData(f.data, f.dataFile, stdin)
	if err != nil {
		return withExitCode(ExitCodeInputError, ErrMsgInvalidData, err)
	}

	env, err := g.open(cmd.ErrOrStderr())
	if err != nil {
		return withExitCode(ExitCodeError, ErrMsgSetupFailed, err)
	}
	defer env.Close()

	var out string
	if source != nil {
		out, err = env.engine.RenderString(cmd.Context(), string(source), data)
	} else {
		out, err = env.engine.Render(cmd.Context(), name, data)
	}
	if err != nil {
		return withExitCode(ExitCodeRenderError, ErrMsgRenderFailed, err)
	}

	if err := writeOutput(f.output, out, cmd.OutOrStdout()); err != nil {
		return withExitCode(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}

// loadData merges the data file with inline JSON; inline keys win.
func loadData(inline, path string, stdin io.Reader) (map[string]any, error) {
	data := make(map[string]any)

	if path != "" {
		var (
			raw []byte
			err error
		)
		if path == InputSourceStdin {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, err
		}

		fromFile := make(map[string]any)
		switch filepath.Ext(path) {
		case ExtYAML, ExtYML:
			err = yaml.Unmarshal(raw, &fromFile)
		default:
			err = json.Unmarshal(raw, &fromFile)
		}
		if err != nil {
			return nil, err
		}
		maps.Copy(data, fromFile)
	}

	if inline != "" {
		fromFlag := make(map[string]any)
		if err := json.Unmarshal([]byte(inline), &fromFlag); err != nil {
			return nil, err
		}
		maps.Copy(data, fromFlag)
	}
	return data, nil
}

func writeOutput(path, out string, stdout io.Writer) error {
	if path == "" || path == FlagDefaultOutput {
		_, err := io.WriteString(stdout, out)
		return err
	}
	return os.WriteFile(path, []byte(out), FilePermissions)
}
