/*
Dockhand - provision a server over SSH and deploy one Dockerized app behind Nginx
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dockhand/internal/exitcode"
	"dockhand/internal/logger"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

var (
	flagCleanup bool
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dockhand",
	Short: "Provision a remote server and deploy a Dockerized app behind Nginx.",
	Long: fmt.Sprintf(`%s

Provisions a remote Ubuntu server over SSH, deploys a single Dockerized
application, and fronts it with an Nginx reverse proxy. All input is gathered
through interactive prompts; re-running against the same target always
converges to one freshly built container.

%s
  %s  clone or update the repository locally and verify its Dockerfile
  %s  probe SSH connectivity before touching anything
  %s  install Docker, Compose and Nginx when missing
  %s  stop, remove, rebuild and start the application container
  %s  write and reload the reverse proxy, then verify reachability

Run with %s to tear a deployment down instead.
`,
		bold("Dockhand"),
		bold("A normal run will:"),
		green("✓"), green("✓"), green("✓"), green("✓"), green("✓"),
		cyan("--cleanup"),
	),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			logger.SetLevel(logger.LevelDebug)
		}
		if flagCleanup {
			return runCleanup(cmd.Context())
		}
		return runDeploy(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().BoolVar(&flagCleanup, "cleanup", false, "tear down the deployment instead of creating it")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "optional YAML answers file; missing values are prompted")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log every remote command and its output")
}

// Execute runs the root command and terminates the process with the failure
// point's designated exit code. Any panic escaping a stage exits 99.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			exitcode.Exit(exitcode.Wrap(exitcode.Unexpected, fmt.Errorf("panic: %v", r)))
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		exitcode.Exit(err)
	}
	os.Exit(0)
}
