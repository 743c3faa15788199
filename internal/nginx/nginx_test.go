package nginx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dockhand/internal/exitcode"
	"dockhand/internal/sshx"
)

func TestRender(t *testing.T) {
	site, err := Render(8080)
	require.NoError(t, err)

	assert.Contains(t, site, "listen 80;")
	assert.Contains(t, site, "proxy_pass http://localhost:8080;")
	assert.Contains(t, site, "proxy_set_header X-Forwarded-For")
	assert.Contains(t, site, "proxy_read_timeout 60s;")
}

func TestApplyOrdering(t *testing.T) {
	r := sshx.NewFakeRunner()
	c := &Configurator{Runner: r}

	require.NoError(t, c.Apply(context.Background(), 8080))

	write := r.Index("tee /etc/nginx/sites-available/dockhand")
	link := r.Index("ln -sf")
	rmDefault := r.Index("rm -f /etc/nginx/sites-enabled/default")
	test := r.Index("nginx -t")
	reload := r.Index("systemctl reload nginx")

	require.NotEqual(t, -1, write)
	assert.Less(t, write, link)
	assert.Less(t, link, rmDefault)
	assert.Less(t, rmDefault, test)
	assert.Less(t, test, reload)
}

func TestApplyConfigTestFailure(t *testing.T) {
	r := sshx.NewFakeRunner()
	r.Responses["nginx -t"] = sshx.Result{ExitCode: 1, Stderr: "nginx: [emerg] unexpected end of file"}
	c := &Configurator{Runner: r}

	err := c.Apply(context.Background(), 8080)
	require.Error(t, err)
	assert.Equal(t, exitcode.NginxTestFailed, exitcode.From(err))
	// Reload must never run after a failed config test.
	assert.False(t, r.Ran("systemctl reload nginx"))
}

func TestApplyReloadFailure(t *testing.T) {
	r := sshx.NewFakeRunner()
	r.Responses["systemctl reload"] = sshx.Result{ExitCode: 1, Stderr: "job failed"}
	c := &Configurator{Runner: r}

	err := c.Apply(context.Background(), 8080)
	require.Error(t, err)
	assert.Equal(t, exitcode.ReloadFailed, exitcode.From(err))
}

func TestVerifyProxyLocalFailure(t *testing.T) {
	r := sshx.NewFakeRunner()
	r.Responses["curl"] = sshx.Result{ExitCode: 7}
	c := &Configurator{Runner: r, Host: "203.0.113.1"}

	err := c.VerifyProxy(context.Background())
	require.Error(t, err)
	assert.Equal(t, exitcode.ProxyUnreachable, exitcode.From(err))
}

func TestVerifyProxyExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	r := sshx.NewFakeRunner()
	c := &Configurator{Runner: r, Host: u.Host}

	assert.NoError(t, c.VerifyProxy(context.Background()))
}

func TestVerifyProxyExternalFailure(t *testing.T) {
	old := externalClient
	externalClient = &http.Client{Timeout: 200 * time.Millisecond}
	defer func() { externalClient = old }()

	r := sshx.NewFakeRunner()
	// Reserved TEST-NET address: nothing answers there.
	c := &Configurator{Runner: r, Host: "203.0.113.1:9"}

	err := c.VerifyProxy(context.Background())
	require.Error(t, err)
	assert.Equal(t, exitcode.ExternalUnreachable, exitcode.From(err))
}

func TestTeardownIdempotent(t *testing.T) {
	r := sshx.NewFakeRunner()
	c := &Configurator{Runner: r}

	for i := 0; i < 2; i++ {
		require.NoError(t, c.Teardown(context.Background()))
	}
	assert.True(t, r.Ran("rm -f /etc/nginx/sites-enabled/dockhand /etc/nginx/sites-available/dockhand"))
}
