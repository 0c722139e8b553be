package internal

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/goplus/rubber/internal/build"
	"github.com/goplus/rubber/internal/env"
	"github.com/goplus/rubber/internal/runtimes"
)

var (
	runtimesDataDir string
	runtimesEA      bool
)

var runtimesCmd = &cobra.Command{
	Use:   "runtimes",
	Short: "List installed runtimes",
	Long:  `Runtimes lists the runtimes in the runtime index, newest first. The active runtime is marked with *.`,
	Args:  cobra.NoArgs,
	RunE:  runRuntimes,
}

func init() {
	runtimesCmd.Flags().StringVar(&runtimesDataDir, "data-dir", "", "Alternative GameMaker data directory")
	runtimesCmd.Flags().BoolVar(&runtimesEA, "ea", false, "Use the Early Access version")
	rootCmd.AddCommand(runtimesCmd)
}

func runRuntimes(cmd *cobra.Command, args []string) error {
	dataDir := runtimesDataDir
	if dataDir == "" {
		e, err := env.FromOS()
		if err != nil {
			return err
		}
		dataDir = build.DefaultDataDir(e, runtimesEA)
	}
	idx, err := runtimes.Load(runtimes.IndexPath(dataDir))
	if err != nil {
		return err
	}
	printRuntimes(newConsole(os.Stdout), idx.List())
	return nil
}

func printRuntimes(out *console, list []runtimes.Runtime) {
	for _, r := range list {
		mark := " "
		if r.Active {
			mark = successColorFG.Sprint("*")
		}
		out.printf("%s %s\t%s\n", mark, r.ID, r.Path)
	}
}
