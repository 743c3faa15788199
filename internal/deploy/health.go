package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dockhand/internal/exitcode"
)

// SettleDelay gives the freshly started container time to bind its port
// before the internal probe runs.
var SettleDelay = 10 * time.Second

// Validate checks the deployment from inside the target host: container
// status, recent logs (informational only), then an HTTP probe against the
// internal port after the settle delay. Any probe failure is fatal.
func (d *Deployer) Validate(ctx context.Context) error {
	running, err := d.containerRunning(ctx)
	if err != nil {
		return err
	}
	if !running {
		return exitcode.Wrap(exitcode.ContainerDown,
			fmt.Errorf("container %s is not running", ContainerName))
	}
	log.Success("Container %s is running", ContainerName)

	res, err := d.Runner.Run(ctx, fmt.Sprintf("sudo docker logs --tail 20 %s 2>&1", ContainerName))
	if err != nil {
		return err
	}
	if out := strings.TrimSpace(res.Stdout); out != "" {
		log.Info("Recent container logs:\n%s", out)
	}

	log.Info("Waiting %v for the application to settle...", SettleDelay)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(SettleDelay):
	}

	probe := fmt.Sprintf("curl -fsS -o /dev/null http://localhost:%d", d.AppPort)
	res, err = d.Runner.Run(ctx, probe)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return exitcode.Wrap(exitcode.PortUnreachable,
			fmt.Errorf("application did not answer on port %d (curl exit %d)", d.AppPort, res.ExitCode))
	}
	log.Success("Application answering on internal port %d", d.AppPort)
	return nil
}
