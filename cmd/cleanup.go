package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"dockhand/internal/config"
	"dockhand/internal/deploy"
	"dockhand/internal/exitcode"
	"dockhand/internal/logger"
	"dockhand/internal/nginx"
	"dockhand/internal/sshx"
)

// runCleanup tears down the container, image, proxy config, and deployment
// directory. Only the SSH target is collected; every teardown step tolerates
// resources that are already gone, so consecutive runs converge to the same
// empty end state.
func runCleanup(ctx context.Context) error {
	path, err := logger.OpenRunLog("logs")
	if err != nil {
		return exitcode.Wrap(exitcode.Unexpected, err)
	}
	log.Info("Run log: %s", path)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return exitcode.Wrap(exitcode.Unexpected, err)
	}
	cfg.ApplyEnvDefaults()
	reader := bufio.NewReader(os.Stdin)
	if err := cfg.CollectTarget(reader); err != nil {
		return exitcode.Wrap(exitcode.Unexpected, err)
	}
	if err := cfg.ValidateTarget(); err != nil {
		return err
	}

	client, err := sshx.Dial(cfg.Host, cfg.User, cfg.KeyPath)
	if err != nil {
		return exitcode.Wrap(exitcode.SSHProbeFailed, err)
	}
	defer client.Close()
	if err := client.Probe(ctx); err != nil {
		return exitcode.Wrap(exitcode.SSHProbeFailed, err)
	}
	log.Success("SSH connectivity confirmed for %s@%s", cfg.User, cfg.Host)

	dep := &deploy.Deployer{Runner: client, Pusher: client}
	if err := dep.Teardown(ctx); err != nil {
		return exitcode.Wrap(exitcode.Unexpected, err)
	}

	proxy := &nginx.Configurator{Runner: client, Host: cfg.Host}
	if err := proxy.Teardown(ctx); err != nil {
		return exitcode.Wrap(exitcode.Unexpected, err)
	}

	fmt.Printf("\n%s %s\n", green("✓"), bold("Cleanup complete"))
	fmt.Printf("  Target:  %s@%s\n", cfg.User, cfg.Host)
	fmt.Printf("  Run log: %s\n\n", path)
	return nil
}
