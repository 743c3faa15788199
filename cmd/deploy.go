package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"dockhand/internal/config"
	"dockhand/internal/deploy"
	"dockhand/internal/exitcode"
	"dockhand/internal/gitrepo"
	"dockhand/internal/logger"
	"dockhand/internal/nginx"
	"dockhand/internal/provision"
	"dockhand/internal/sshx"
)

var log = logger.PackageLogger("run")

// runDeploy executes the full pipeline: collect, fetch, probe, provision,
// deploy, validate, proxy. Stages run strictly in order; the first fatal
// error aborts the run with its designated exit code, so a later stage can
// never execute after an earlier one failed.
func runDeploy(ctx context.Context) error {
	path, err := logger.OpenRunLog("logs")
	if err != nil {
		return exitcode.Wrap(exitcode.Unexpected, err)
	}
	log.Info("Run log: %s", path)

	// Stage 1: input collection and validation.
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return exitcode.Wrap(exitcode.Unexpected, err)
	}
	cfg.ApplyEnvDefaults()
	reader := bufio.NewReader(os.Stdin)
	if err := cfg.Collect(reader); err != nil {
		return exitcode.Wrap(exitcode.Unexpected, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Summary()
	cfg.RememberToken()

	// Stage 2: fetch sources locally and verify the build descriptor.
	fetcher := &gitrepo.Fetcher{URL: cfg.RepoURL, Token: cfg.Token}
	if err := fetcher.CloneOrUpdate(ctx, cfg.RepoPath()); err != nil {
		return exitcode.Wrap(exitcode.BadRepoURL, err)
	}
	if err := gitrepo.VerifyDockerfile(cfg.RepoPath()); err != nil {
		return exitcode.Wrap(exitcode.BadRepoURL, err)
	}

	// Stage 3: connectivity probe before any destructive action.
	client, err := sshx.Dial(cfg.Host, cfg.User, cfg.KeyPath)
	if err != nil {
		return exitcode.Wrap(exitcode.SSHProbeFailed, err)
	}
	defer client.Close()
	if err := client.Probe(ctx); err != nil {
		return exitcode.Wrap(exitcode.SSHProbeFailed, err)
	}
	log.Success("SSH connectivity confirmed for %s@%s", cfg.User, cfg.Host)

	// Stage 4: remote environment.
	prov := &provision.Provisioner{Runner: client}
	if err := log.Timed("remote provisioning", func() error {
		return prov.EnsureAll(ctx)
	}); err != nil {
		return err
	}

	// Stages 5-6: deploy and validate.
	dep := &deploy.Deployer{Runner: client, Pusher: client, AppPort: cfg.AppPort}
	if err := log.Timed("deployment", func() error {
		return dep.Deploy(ctx, cfg.RepoPath())
	}); err != nil {
		return err
	}
	if err := dep.Validate(ctx); err != nil {
		return err
	}

	// Stage 7: reverse proxy, then end-to-end verification.
	proxy := &nginx.Configurator{Runner: client, Host: cfg.Host}
	if err := proxy.Apply(ctx, cfg.AppPort); err != nil {
		return err
	}
	if err := proxy.VerifyProxy(ctx); err != nil {
		return err
	}

	fmt.Printf("\n%s %s\n", green("✓"), bold("Deployment complete"))
	fmt.Printf("  Application: http://%s/\n", cfg.Host)
	fmt.Printf("  Container:   %s (port %d)\n", deploy.ContainerName, cfg.AppPort)
	fmt.Printf("  Run log:     %s\n\n", path)
	return nil
}
