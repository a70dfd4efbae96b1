// Command scantrack runs the box tracking server and its maintenance
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/scantrack/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	var envFile string
	root := &cobra.Command{
		Use:   "scantrack",
		Short: "Track transport boxes from packing to delivery",
		Long: `scantrack records transport boxes and the items scanned into them, and
follows each box through packing, sealing, transit and receipt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyConfigFile, "", "config file (default: ./scantrack.yaml or /etc/scantrack/scantrack.yaml)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with SCANTRACK_* variables")
	flags.StringP(config.KeyDB, "d", "scantrack.sqlite3", "SQLite database path")
	flags.StringP(config.KeyLog, "l", "", "log file path (default: stdout/stderr only)")
	bindFlags(v, flags, map[string]string{
		config.KeyConfigFile: config.KeyConfigFile,
		config.KeyDB:         config.KeyDB,
		config.KeyLog:        config.KeyLog,
	})

	root.AddCommand(newServeCmd(v))
	root.AddCommand(newPasswordCmd(v))
	root.AddCommand(newVersionCmd())
	return root
}

// bindFlags binds flags to viper keys, given as flag name to key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names map[string]string) {
	for name, key := range names {
		if f := flags.Lookup(name); f != nil {
			// BindPFlag only fails on a nil flag.
			_ = v.BindPFlag(key, f)
		}
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "scantrack", version)
		},
	}
}
