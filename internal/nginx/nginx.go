package nginx

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"dockhand/internal/exitcode"
	"dockhand/internal/logger"
	"dockhand/internal/sshx"
)

var log = logger.PackageLogger("nginx")

const (
	// SitePath is the deterministic location of the generated server block.
	SitePath    = "/etc/nginx/sites-available/dockhand"
	enabledPath = "/etc/nginx/sites-enabled/dockhand"
	defaultSite = "/etc/nginx/sites-enabled/default"
)

// serverBlock is the fixed-topology proxy config: listen on 80, forward to
// the application's internal port with standard forwarded headers.
var serverBlock = template.Must(template.New("site").Parse(`server {
    listen 80;
    listen [::]:80;

    location / {
        proxy_pass http://localhost:{{.Port}};
        proxy_http_version 1.1;
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection 'upgrade';
        proxy_connect_timeout 60s;
        proxy_send_timeout 60s;
        proxy_read_timeout 60s;
    }
}
`))

// Configurator writes and activates the reverse proxy config on the target.
type Configurator struct {
	Runner sshx.Runner

	// Host is the public address used for the external reachability check.
	Host string
}

// Render produces the server block for the chosen application port.
func Render(port int) (string, error) {
	var sb strings.Builder
	if err := serverBlock.Execute(&sb, struct{ Port int }{port}); err != nil {
		return "", fmt.Errorf("failed to render server block: %w", err)
	}
	return sb.String(), nil
}

// Apply overwrites the site file, enables it, removes the platform default
// site, validates the config, and reloads Nginx. Config-test and reload
// failures are fatal with distinct codes.
func (c *Configurator) Apply(ctx context.Context, port int) error {
	site, err := Render(port)
	if err != nil {
		return err
	}

	log.Info("Writing server block to %s", SitePath)
	write := fmt.Sprintf("sudo tee %s > /dev/null <<'DOCKHAND_EOF'\n%sDOCKHAND_EOF", SitePath, site)
	res, err := c.Runner.Run(ctx, write)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return fmt.Errorf("failed to write site file (exit %d): %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	enable := []string{
		fmt.Sprintf("sudo ln -sf %s %s", SitePath, enabledPath),
		fmt.Sprintf("sudo rm -f %s", defaultSite),
	}
	for _, cmd := range enable {
		if _, err := c.Runner.Run(ctx, cmd); err != nil {
			return err
		}
	}

	res, err = c.Runner.Run(ctx, "sudo nginx -t")
	if err != nil {
		return err
	}
	if !res.Ok() {
		return exitcode.Wrap(exitcode.NginxTestFailed,
			fmt.Errorf("nginx -t exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr)))
	}

	res, err = c.Runner.Run(ctx, "sudo systemctl reload nginx")
	if err != nil {
		return err
	}
	if !res.Ok() {
		return exitcode.Wrap(exitcode.ReloadFailed,
			fmt.Errorf("nginx reload exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr)))
	}
	log.Success("Reverse proxy configured: port 80 -> localhost:%d", port)
	return nil
}

// VerifyProxy probes the proxy from inside the target, then from the
// operator's machine over the public address.
func (c *Configurator) VerifyProxy(ctx context.Context) error {
	res, err := c.Runner.Run(ctx, "curl -fsS -o /dev/null http://localhost/")
	if err != nil {
		return err
	}
	if !res.Ok() {
		return exitcode.Wrap(exitcode.ProxyUnreachable,
			fmt.Errorf("proxy did not answer on port 80 (curl exit %d)", res.ExitCode))
	}
	log.Success("Proxy answering on port 80")

	if err := probeExternal(ctx, c.Host); err != nil {
		return exitcode.Wrap(exitcode.ExternalUnreachable, err)
	}
	log.Success("Application reachable externally at http://%s/", c.Host)
	return nil
}

// Teardown removes the site file and symlink and reloads. Best effort: a
// config that is already gone is the desired end state.
func (c *Configurator) Teardown(ctx context.Context) error {
	log.Info("Removing proxy configuration")
	cmds := []string{
		fmt.Sprintf("sudo rm -f %s %s", enabledPath, SitePath),
		"sudo nginx -t && sudo systemctl reload nginx || true",
	}
	for _, cmd := range cmds {
		if _, err := c.Runner.Run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}
