package provision

import (
	"context"
	"fmt"
	"strings"

	"dockhand/internal/exitcode"
	"dockhand/internal/logger"
	"dockhand/internal/sshx"
)

var log = logger.PackageLogger("provision")

// Provisioner idempotently ensures Docker, the compose plugin, and Nginx are
// installed and running on the remote host. Each tool is a presence probe
// followed by an install branch, independent of the others.
type Provisioner struct {
	Runner sshx.Runner
}

// EnsureAll prepares the remote environment for deployment.
func (p *Provisioner) EnsureAll(ctx context.Context) error {
	if err := p.EnsureDocker(ctx); err != nil {
		return err
	}
	if err := p.EnsureCompose(ctx); err != nil {
		return err
	}
	return p.EnsureNginx(ctx)
}

// EnsureDocker installs and starts Docker when absent, then verifies the
// daemon answers. A dead daemon after installation is fatal.
func (p *Provisioner) EnsureDocker(ctx context.Context) error {
	res, err := p.Runner.Run(ctx, "command -v docker >/dev/null 2>&1 && docker --version")
	if err != nil {
		return err
	}
	if res.Ok() {
		log.Info("Docker already installed: %s", strings.TrimSpace(res.Stdout))
	} else {
		log.Info("Installing Docker...")
		cmds := []string{
			"sudo apt-get update -y",
			"sudo DEBIAN_FRONTEND=noninteractive apt-get install -y docker.io",
			"sudo systemctl enable docker",
			"sudo systemctl start docker",
		}
		for _, cmd := range cmds {
			res, err := p.Runner.Run(ctx, cmd)
			if err != nil {
				return err
			}
			if !res.Ok() {
				return exitcode.Wrap(exitcode.DockerDown,
					fmt.Errorf("docker installation step %q exited %d: %s", cmd, res.ExitCode, strings.TrimSpace(res.Stderr)))
			}
		}
		log.Success("Docker installed")
	}

	res, err = p.Runner.Run(ctx, "sudo docker info >/dev/null 2>&1")
	if err != nil {
		return err
	}
	if !res.Ok() {
		return exitcode.Wrap(exitcode.DockerDown, fmt.Errorf("docker daemon is not responding"))
	}
	return nil
}

// EnsureCompose installs the docker compose plugin when missing. Compose is
// not used by the deploy sequence itself, so a failed install is only logged.
func (p *Provisioner) EnsureCompose(ctx context.Context) error {
	res, err := p.Runner.Run(ctx, "docker compose version 2>/dev/null || docker-compose --version 2>/dev/null")
	if err != nil {
		return err
	}
	if res.Ok() && strings.TrimSpace(res.Stdout) != "" {
		log.Info("Docker Compose already installed: %s", firstLine(res.Stdout))
		return nil
	}

	log.Info("Installing Docker Compose plugin...")
	res, err = p.Runner.Run(ctx, "sudo DEBIAN_FRONTEND=noninteractive apt-get install -y docker-compose-plugin || sudo DEBIAN_FRONTEND=noninteractive apt-get install -y docker-compose")
	if err != nil {
		return err
	}
	if !res.Ok() {
		log.Warn("Docker Compose install failed (exit %d); continuing without it", res.ExitCode)
		return nil
	}
	log.Success("Docker Compose installed")
	return nil
}

// EnsureNginx installs, enables and starts Nginx when absent.
func (p *Provisioner) EnsureNginx(ctx context.Context) error {
	res, err := p.Runner.Run(ctx, "command -v nginx >/dev/null 2>&1 && nginx -v 2>&1")
	if err != nil {
		return err
	}
	if res.Ok() {
		version := firstLine(res.Stdout)
		if version == "" {
			version = firstLine(res.Stderr)
		}
		log.Info("Nginx already installed: %s", version)
		return nil
	}

	log.Info("Installing Nginx...")
	cmds := []string{
		"sudo apt-get update -y",
		"sudo DEBIAN_FRONTEND=noninteractive apt-get install -y nginx",
		"sudo systemctl enable nginx",
		"sudo systemctl start nginx",
	}
	for _, cmd := range cmds {
		res, err := p.Runner.Run(ctx, cmd)
		if err != nil {
			return err
		}
		if !res.Ok() {
			return fmt.Errorf("nginx installation step %q exited %d: %s", cmd, res.ExitCode, strings.TrimSpace(res.Stderr))
		}
	}
	log.Success("Nginx installed")
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
