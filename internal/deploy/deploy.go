package deploy

import (
	"context"
	"fmt"
	"strings"

	"dockhand/internal/exitcode"
	"dockhand/internal/logger"
	"dockhand/internal/sshx"
)

var log = logger.PackageLogger("deploy")

// Fixed deployment identity. The container name is the sole key: at most one
// container with this name may exist on the target at any time.
const (
	ContainerName = "dockhand-app"
	ImageTag      = "dockhand-app:latest"
	RemoteDir     = "/opt/dockhand/app"
)

// Pusher transfers the project tree to the remote host. *sshx.Client
// implements it; tests substitute a recorder.
type Pusher interface {
	Push(ctx context.Context, localDir, remoteDir string) error
}

// Deployer drives the stop, remove, rebuild, run sequence for the single
// application container.
type Deployer struct {
	Runner sshx.Runner
	Pusher Pusher

	// AppPort is bound host:container with the same number on both sides.
	AppPort int
}

// containerExists reports whether a container with the fixed name exists in
// any state.
func (d *Deployer) containerExists(ctx context.Context) (bool, error) {
	res, err := d.Runner.Run(ctx, fmt.Sprintf("sudo docker ps -aq -f name=^%s$", ContainerName))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// containerRunning reports whether the named container is currently up.
func (d *Deployer) containerRunning(ctx context.Context) (bool, error) {
	res, err := d.Runner.Run(ctx, fmt.Sprintf("sudo docker ps -q -f name=^%s$ -f status=running", ContainerName))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// imageExists reports whether the fixed image tag is present.
func (d *Deployer) imageExists(ctx context.Context) (bool, error) {
	res, err := d.Runner.Run(ctx, fmt.Sprintf("sudo docker images -q %s", ImageTag))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// removeContainer forces the named container absent. Tolerant: a container
// that does not exist is already in the desired state.
func (d *Deployer) removeContainer(ctx context.Context) error {
	_, err := d.Runner.Run(ctx, fmt.Sprintf("sudo docker stop %s 2>/dev/null || true", ContainerName))
	if err != nil {
		return err
	}
	_, err = d.Runner.Run(ctx, fmt.Sprintf("sudo docker rm -f %s 2>/dev/null || true", ContainerName))
	return err
}

// removeImage forces the image absent so the build starts from the new tree.
func (d *Deployer) removeImage(ctx context.Context) error {
	_, err := d.Runner.Run(ctx, fmt.Sprintf("sudo docker rmi -f %s 2>/dev/null || true", ImageTag))
	return err
}

// reconcile drives container and image to absent before the rebuild: a
// presence query then a force-absent operation per resource. Every
// force-absent step is best-effort so a re-run after a partial failure
// converges instead of aborting.
func (d *Deployer) reconcile(ctx context.Context) error {
	exists, err := d.containerExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		log.Info("Removing existing container %s", ContainerName)
	}
	if err := d.removeContainer(ctx); err != nil {
		return err
	}

	present, err := d.imageExists(ctx)
	if err != nil {
		return err
	}
	if present {
		log.Info("Removing existing image %s", ImageTag)
	}
	return d.removeImage(ctx)
}

// Deploy transfers the project tree and rebuilds and starts the container.
// Transfer and build/run failures are fatal with their designated codes.
func (d *Deployer) Deploy(ctx context.Context, localDir string) error {
	log.Info("Transferring project files to %s", RemoteDir)
	if err := d.Pusher.Push(ctx, localDir, RemoteDir); err != nil {
		return exitcode.Wrap(exitcode.TransferFailed, err)
	}
	log.Success("Project files transferred")

	if err := d.reconcile(ctx); err != nil {
		return err
	}

	log.Info("Building image %s", ImageTag)
	res, err := d.Runner.Run(ctx, fmt.Sprintf("cd %s && sudo docker build -t %s .", RemoteDir, ImageTag))
	if err != nil {
		return err
	}
	if !res.Ok() {
		return exitcode.Wrap(exitcode.DeployFailed,
			fmt.Errorf("docker build exited %d: %s", res.ExitCode, tail(res.Stderr)))
	}
	log.Success("Image built")

	log.Info("Starting container %s on port %d", ContainerName, d.AppPort)
	run := fmt.Sprintf("sudo docker run -d --name %s --restart unless-stopped -p %d:%d %s",
		ContainerName, d.AppPort, d.AppPort, ImageTag)
	res, err = d.Runner.Run(ctx, run)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return exitcode.Wrap(exitcode.DeployFailed,
			fmt.Errorf("docker run exited %d: %s", res.ExitCode, tail(res.Stderr)))
	}
	log.Success("Container started")
	return nil
}

// Teardown removes the container, the image, and the deployment directory.
// Every step tolerates the resource being already absent.
func (d *Deployer) Teardown(ctx context.Context) error {
	log.Info("Removing container %s", ContainerName)
	if err := d.removeContainer(ctx); err != nil {
		return err
	}
	log.Info("Removing image %s", ImageTag)
	if err := d.removeImage(ctx); err != nil {
		return err
	}
	log.Info("Removing %s", RemoteDir)
	_, err := d.Runner.Run(ctx, fmt.Sprintf("sudo rm -rf %s", RemoteDir))
	return err
}

// tail keeps error output readable: the last few lines carry the failure.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}
