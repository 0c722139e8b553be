package internal

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/goplus/rubber/internal/build"
	"github.com/goplus/rubber/internal/env"
	"github.com/goplus/rubber/internal/project"
)

var cleanList bool

var cleanCmd = &cobra.Command{
	Use:   "clean [project]",
	Short: "Clear the build cache of a project",
	Long: `Clean removes the build directory kept for a project by --keep-cache.
With --list it prints the kept build directories instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanList, "list", false, "List kept build directories")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	out := newConsole(os.Stdout)
	if cleanList {
		e, err := env.FromOS()
		if err != nil {
			return err
		}
		recs, err := build.Retained(e)
		if err != nil {
			return err
		}
		for _, r := range recs {
			out.printf("%s  %s  exit %d  %s\n", r.Finished.Format("2006-01-02 15:04:05"), r.ID, r.ExitCode, r.Project)
		}
		return nil
	}

	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	proj, err := project.Find(path)
	if err != nil {
		return err
	}
	if err := build.NewBuilder(nil).ClearCache(cmd.Context(), proj); err != nil {
		return err
	}
	out.info("Cleared Project Cache.")
	return nil
}
