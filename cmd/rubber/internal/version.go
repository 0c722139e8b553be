package internal

import (
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at link time with -ldflags "-X".
var Version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rubber version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		newConsole(os.Stdout).printf("Rubber %s\n", successColorFG.Sprint(version()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func version() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}
