package exitcode

import (
	"errors"
	"os"

	"dockhand/internal/logger"
)

// Code identifies one specific failure point. Every fatal error in a run maps
// to exactly one of these, so an operator can tell from the exit status alone
// which stage gave up.
type Code int

const (
	OK                  Code = 0
	BadRepoURL          Code = 1
	MissingSSHKey       Code = 2
	SSHProbeFailed      Code = 3
	TransferFailed      Code = 4
	DeployFailed        Code = 5
	PortUnreachable     Code = 6
	NginxTestFailed     Code = 7
	ReloadFailed        Code = 8
	DockerDown          Code = 9
	ContainerDown       Code = 10
	ProxyUnreachable    Code = 11
	ExternalUnreachable Code = 12
	Unexpected          Code = 99
)

var names = map[Code]string{
	BadRepoURL:          "invalid repository URL",
	MissingSSHKey:       "SSH key file not found",
	SSHProbeFailed:      "SSH connectivity probe failed",
	TransferFailed:      "file transfer failed",
	DeployFailed:        "docker deployment failed",
	PortUnreachable:     "application port unreachable",
	NginxTestFailed:     "nginx configuration test failed",
	ReloadFailed:        "nginx reload failed",
	DockerDown:          "docker service not running",
	ContainerDown:       "container not running",
	ProxyUnreachable:    "reverse proxy unreachable",
	ExternalUnreachable: "external access check failed",
	Unexpected:          "unexpected error",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "unknown failure"
}

// Error carries a Code through the call stack so the top level can exit with it.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap attaches a Code to err. A nil err stays nil.
func Wrap(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// From extracts the Code from err, falling back to Unexpected.
func From(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unexpected
}

var log = logger.PackageLogger("exit")

// Exit logs err and terminates the process with its mapped code.
func Exit(err error) {
	if err == nil {
		os.Exit(int(OK))
	}
	code := From(err)
	log.Error("%v (exit %d)", err, int(code))
	os.Exit(int(code))
}
