// Package cli implements the rccalllog CLI commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rc-tools/rccalllog/internal/clock"
	"github.com/rc-tools/rccalllog/internal/config"
)

// environment is what the commands need from the outside world. Execute
// uses the real one; tests substitute a fake clock and transport.
type environment struct {
	clock clock.Clock
	// httpClient carries token and API requests; nil uses the default transport.
	httpClient *http.Client
	isTerminal func(r io.Reader) bool

	envFile         string
	verbose         bool
	metricsTextfile string
}

func defaultEnvironment() *environment {
	return &environment{
		clock:      clock.System{},
		isTerminal: stdinIsTerminal,
	}
}

func stdinIsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRootCmd(env *environment) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rccalllog",
		Short: "Fetch, search and delete RingCentral call logs",
		Long: `rccalllog reads the RingCentral call log of an account over a date range,
searches it by phone number and deletes the records that carry a call recording.

Credentials are read from RC_CLIENT_ID, RC_CLIENT_SECRET, RC_JWT_TOKEN and
RC_SERVER, either in the environment or in a .env file.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&env.envFile, "env-file", config.DefaultEnvFile, "dotenv file with RC_* credentials (optional)")
	rootCmd.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "log every API request")
	rootCmd.PersistentFlags().StringVar(&env.metricsTextfile, "metrics-textfile", "", "write run metrics in Prometheus text format to this file")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(newDeleteCmd(env))
	rootCmd.AddCommand(newFetchCmd(env))
	rootCmd.AddCommand(newHistoryCmd(env))
	rootCmd.AddCommand(newPurgeCmd(env))
	rootCmd.AddCommand(newSearchCmd(env))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(defaultEnvironment()).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("Error:"), err)
	}
	return err
}
