package provision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dockhand/internal/exitcode"
	"dockhand/internal/sshx"
)

func TestEnsureDockerSkipsWhenPresent(t *testing.T) {
	r := sshx.NewFakeRunner()
	r.Responses["command -v docker"] = sshx.Result{Stdout: "Docker version 27.3.1"}
	r.Responses["docker info"] = sshx.Result{}

	p := &Provisioner{Runner: r}
	require.NoError(t, p.EnsureDocker(context.Background()))

	assert.False(t, r.Ran("apt-get install -y docker.io"))
}

func TestEnsureDockerInstallsWhenAbsent(t *testing.T) {
	r := sshx.NewFakeRunner()
	r.Responses["command -v docker"] = sshx.Result{ExitCode: 1}

	p := &Provisioner{Runner: r}
	require.NoError(t, p.EnsureDocker(context.Background()))

	assert.True(t, r.Ran("apt-get install -y docker.io"))
	assert.True(t, r.Ran("systemctl enable docker"))
	assert.True(t, r.Ran("systemctl start docker"))
}

func TestEnsureDockerDeadDaemonIsFatal(t *testing.T) {
	r := sshx.NewFakeRunner()
	r.Responses["command -v docker"] = sshx.Result{Stdout: "Docker version 27.3.1"}
	r.Responses["docker info"] = sshx.Result{ExitCode: 1}

	p := &Provisioner{Runner: r}
	err := p.EnsureDocker(context.Background())
	require.Error(t, err)
	assert.Equal(t, exitcode.DockerDown, exitcode.From(err))
}

func TestEnsureNginxSkipsWhenPresent(t *testing.T) {
	r := sshx.NewFakeRunner()
	r.Responses["command -v nginx"] = sshx.Result{Stderr: "nginx version: nginx/1.24.0"}

	p := &Provisioner{Runner: r}
	require.NoError(t, p.EnsureNginx(context.Background()))
	assert.False(t, r.Ran("apt-get install -y nginx"))
}

func TestEnsureNginxInstallsWhenAbsent(t *testing.T) {
	r := sshx.NewFakeRunner()
	r.Responses["command -v nginx"] = sshx.Result{ExitCode: 1}

	p := &Provisioner{Runner: r}
	require.NoError(t, p.EnsureNginx(context.Background()))

	assert.True(t, r.Ran("apt-get install -y nginx"))
	assert.True(t, r.Ran("systemctl enable nginx"))
}

func TestEnsureComposeFailureIsTolerated(t *testing.T) {
	r := sshx.NewFakeRunner()
	r.Responses["compose version"] = sshx.Result{ExitCode: 1}
	r.Responses["apt-get install"] = sshx.Result{ExitCode: 100}

	p := &Provisioner{Runner: r}
	assert.NoError(t, p.EnsureCompose(context.Background()))
}
