// Package cli provides the dvcli command tree.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/datavault/dvcli/internal/constants"
	"github.com/datavault/dvcli/internal/logging"
	"github.com/datavault/dvcli/internal/version"
)

var (
	verbose  bool
	velocity int

	proxyMode     string
	proxyHost     string
	proxyPort     int
	proxyUser     string
	proxyPassword string
	noProxy       string

	logger *logging.Logger
)

// NewRootCmd builds the dvcli root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dvcli",
		Short: "dvcli - DataVault command line client",
		Long: `dvcli ` + version.Version + ` - Built: ` + version.BuildTime + `
Transfer files to and from a DataVault server: login, browse the node
tree, upload and download whole directory structures, and work with
public shares.

Paths name nodes the way the web UI shows them, host included:

  dvcli ls        dv.example.com/projects
  dvcli upload    ./results dv.example.com/projects/experiments
  dvcli download  dv.example.com/projects/report.pdf .`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")
	rootCmd.PersistentFlags().IntVar(&velocity, "velocity", constants.DefaultVelocity,
		"transfer concurrency knob (1-10)")
	rootCmd.PersistentFlags().StringVar(&proxyMode, "proxy-mode", "",
		"proxy mode: no-proxy, system, basic or ntlm")
	rootCmd.PersistentFlags().StringVar(&proxyHost, "proxy-host", "", "proxy host for basic/ntlm modes")
	rootCmd.PersistentFlags().IntVar(&proxyPort, "proxy-port", 0, "proxy port (default 8080)")
	rootCmd.PersistentFlags().StringVar(&proxyUser, "proxy-user", "",
		"proxy user name (password is prompted, never a flag)")
	rootCmd.PersistentFlags().StringVar(&noProxy, "no-proxy", "", "comma-separated proxy bypass list")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newLsCmd(),
		newMkdirCmd(),
		newMkroomCmd(),
		newRmCmd(),
		newCpCmd(),
		newMvCmd(),
		newUploadCmd(),
		newDownloadCmd(),
		newShareCmd(),
		newUsersCmd(),
		newGroupsCmd(),
		newReportsCmd(),
	)

	return rootCmd
}

// Execute runs the CLI with a signal-cancelled context. Ctrl-C aborts
// in-flight transfers cleanly instead of leaving the terminal mid-bar.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if logger == nil {
			// Flag parse errors fail before PersistentPreRun runs.
			logger = logging.NewDefaultLogger()
		}
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}
