package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"

	"github.com/DachengChen/sqlagent/config"
)

func writeKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := gossh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestNewTunnel(t *testing.T) {
	tun, err := NewTunnel(config.SSHConfig{
		Host:    "bastion.internal",
		User:    "deploy",
		KeyPath: writeKey(t),
	}, "db.internal:5432")
	require.NoError(t, err)

	assert.Equal(t, "bastion.internal:22", tun.sshAddr)
	assert.Equal(t, "db.internal:5432", tun.remoteAddr)
	assert.Equal(t, "deploy", tun.sshConfig.User)
	tun.Stop()
	tun.Stop()
}

func TestNewTunnel_Errors(t *testing.T) {
	_, err := NewTunnel(config.SSHConfig{Host: "b", User: "u"}, "db:5432")
	assert.ErrorContains(t, err, "no SSH authentication methods")

	_, err = NewTunnel(config.SSHConfig{Host: "b", User: "u", KeyPath: filepath.Join(t.TempDir(), "missing")}, "db:5432")
	assert.ErrorContains(t, err, "read ssh key")

	_, err = NewTunnel(config.SSHConfig{
		Host:       "b",
		User:       "u",
		KeyPath:    writeKey(t),
		KnownHosts: filepath.Join(t.TempDir(), "missing_known_hosts"),
	}, "db:5432")
	assert.ErrorContains(t, err, "load known_hosts")
}

func TestAddr_String(t *testing.T) {
	assert.Equal(t, "127.0.0.1:40000", Addr{Host: "127.0.0.1", Port: 40000}.String())
}
