package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSHConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  SSHConfig
		wantErr error
	}{
		{
			name:    "missing host",
			config:  SSHConfig{User: "admin", Password: "secret"},
			wantErr: ErrNoHost,
		},
		{
			name:    "missing user",
			config:  SSHConfig{Host: "sw1", Password: "secret"},
			wantErr: ErrNoUser,
		},
		{
			name:    "missing auth",
			config:  SSHConfig{Host: "sw1", User: "admin"},
			wantErr: ErrNoAuth,
		},
		{
			name:   "password auth",
			config: SSHConfig{Host: "sw1", User: "admin", Password: "secret"},
		},
		{
			name:   "identity auth",
			config: SSHConfig{Host: "sw1", User: "admin", IdentityFile: "/tmp/id_ed25519"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSSHConfigAddr(t *testing.T) {
	assert.Equal(t, "sw1:22", SSHConfig{Host: "sw1"}.addr())
	assert.Equal(t, "sw1:2222", SSHConfig{Host: "sw1", Port: 2222}.addr())
}

func TestNewSSHRejectsIncompleteConfig(t *testing.T) {
	_, err := NewSSH(SSHConfig{Host: "sw1"})
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestSSHCloseWithoutConnect(t *testing.T) {
	s, err := NewSSH(SSHConfig{Host: "sw1", User: "admin", Password: "secret"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestTransportErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &TransportError{Op: "connect sw1:22", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "connect sw1:22")
	assert.Contains(t, err.Error(), "connection refused")
}
