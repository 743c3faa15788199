package sshx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"dockhand/internal/logger"
)

var log = logger.PackageLogger("ssh")

// Result is the structured outcome of one remote command. A non-zero ExitCode
// is not a transport error; callers decide whether it is fatal.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Ok reports whether the remote command exited zero.
func (r Result) Ok() bool { return r.ExitCode == 0 }

// Runner executes shell commands on the deployment target. The concrete
// implementation opens one SSH session per command; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, command string) (Result, error)
}

// Client is an SSH connection to the deployment target.
type Client struct {
	conn *ssh.Client
	addr string
}

// DialTimeout bounds the initial connection attempt. Individual commands run
// unbounded, matching the strictly sequential execution model.
const DialTimeout = 10 * time.Second

// Dial connects to user@host:22 authenticating with the private key at keyPath.
func Dial(host, user, keyPath string) (*Client, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key %s: %w", keyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}

	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         DialTimeout,
	}

	addr := host
	if !strings.Contains(addr, ":") {
		addr += ":22"
	}
	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	log.Debug("connected to %s", addr)
	return &Client{conn: conn, addr: addr}, nil
}

// Close shuts down the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Run executes command in a fresh session and captures its output. The
// returned error is non-nil only for transport-level failures; a failing
// command is reported through Result.ExitCode.
func (c *Client) Run(ctx context.Context, command string) (Result, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		session.Close()
		return Result{}, ctx.Err()
	case err = <-done:
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("remote command failed to run: %w", err)
		}
		res.ExitCode = exitErr.ExitStatus()
	}
	log.Debug("ran %q (exit %d)", command, res.ExitCode)
	return res, nil
}

// Probe performs a no-op round trip to confirm reachability and
// authentication. Binary outcome, no retry.
func (c *Client) Probe(ctx context.Context) error {
	res, err := c.Run(ctx, "echo ok")
	if err != nil {
		return err
	}
	if !res.Ok() || !strings.Contains(res.Stdout, "ok") {
		return fmt.Errorf("probe command exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Push replaces remoteDir with the contents of localDir, streaming a tarball
// through the session's stdin so no scp binary is needed on either side.
func (c *Client) Push(ctx context.Context, localDir, remoteDir string) error {
	archive, err := packDir(localDir)
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", localDir, err)
	}

	session, err := c.conn.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	session.Stdin = bytes.NewReader(archive)
	var stderr bytes.Buffer
	session.Stderr = &stderr

	cmd := fmt.Sprintf("rm -rf %s && mkdir -p %s && tar -xzf - -C %s", remoteDir, remoteDir, remoteDir)
	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		session.Close()
		return ctx.Err()
	case err = <-done:
	}
	if err != nil {
		return fmt.Errorf("remote extract failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	log.Debug("pushed %s to %s (%d bytes)", localDir, remoteDir, len(archive))
	return nil
}
