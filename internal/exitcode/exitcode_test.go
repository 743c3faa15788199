package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(DeployFailed, nil))
}

func TestFromWrapped(t *testing.T) {
	err := Wrap(MissingSSHKey, errors.New("no such file"))
	assert.Equal(t, MissingSSHKey, From(err))

	// Survives further wrapping up the call stack.
	outer := fmt.Errorf("collecting input: %w", err)
	assert.Equal(t, MissingSSHKey, From(outer))
}

func TestFromUnknown(t *testing.T) {
	assert.Equal(t, Unexpected, From(errors.New("boom")))
}

func TestDistinctCodes(t *testing.T) {
	codes := []Code{
		BadRepoURL, MissingSSHKey, SSHProbeFailed, TransferFailed,
		DeployFailed, PortUnreachable, NginxTestFailed, ReloadFailed,
		DockerDown, ContainerDown, ProxyUnreachable, ExternalUnreachable,
	}
	seen := map[Code]bool{}
	for i, c := range codes {
		assert.Equal(t, i+1, int(c))
		assert.False(t, seen[c])
		seen[c] = true
	}
	assert.Equal(t, 99, int(Unexpected))
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(NginxTestFailed, errors.New("nginx: [emerg]"))
	assert.Contains(t, err.Error(), "nginx configuration test failed")
	assert.Contains(t, err.Error(), "[emerg]")
}
