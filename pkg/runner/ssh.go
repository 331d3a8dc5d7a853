package runner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/netwait/netwait/pkg/logger"
	"github.com/netwait/netwait/pkg/wait"
)

const defaultSSHPort = 22

var (
	// ErrNoHost is returned when the SSH config has no host.
	ErrNoHost = errors.New("ssh host is required")
	// ErrNoUser is returned when the SSH config has no user.
	ErrNoUser = errors.New("ssh user is required")
	// ErrNoAuth is returned when neither a password nor an identity
	// file is configured.
	ErrNoAuth = errors.New("ssh requires a password or an identity file")
)

// SSHConfig describes how to reach the device over SSH.
type SSHConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// IdentityFile is a path to a PEM private key. Takes precedence
	// over Password when both are set.
	IdentityFile string
	// ConnectTimeout bounds the TCP dial and handshake.
	ConnectTimeout time.Duration
}

// Validate checks that the config is complete enough to dial.
func (c SSHConfig) Validate() error {
	if c.Host == "" {
		return ErrNoHost
	}
	if c.User == "" {
		return ErrNoUser
	}
	if c.Password == "" && c.IdentityFile == "" {
		return ErrNoAuth
	}
	return nil
}

func (c SSHConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = defaultSSHPort
	}
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", port))
}

// SSH runs command batches on a remote device over a single SSH
// connection, one session per command. The connection is established
// lazily on the first Run and reused afterwards; it is not safe for
// concurrent use by multiple polling sessions.
type SSH struct {
	config SSHConfig
	client *ssh.Client
	log    logger.Logger
}

// NewSSH creates an SSH runner for the given device.
func NewSSH(config SSHConfig) (*SSH, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SSH{config: config, log: logger.NewNoLogger()}, nil
}

// SetLogger sets the logger used to trace connection and execution.
func (s *SSH) SetLogger(log logger.Logger) {
	if log != nil {
		s.log = log
	}
}

// Run executes every command in order on the device and captures its
// output. Dial, session and execution failures surface as a
// TransportError.
func (s *SSH) Run(ctx context.Context, commands []string) ([]wait.Response, error) {
	if err := s.connect(); err != nil {
		return nil, &TransportError{Op: "connect " + s.config.addr(), Err: err}
	}
	responses := make([]wait.Response, 0, len(commands))
	for _, command := range commands {
		if err := ctx.Err(); err != nil {
			return nil, &TransportError{Op: command, Err: err}
		}
		out, err := s.runOne(command)
		if err != nil {
			return nil, &TransportError{Op: command, Err: err}
		}
		responses = append(responses, wait.Text(out))
	}
	return responses, nil
}

// Close tears down the SSH connection. Safe to call when never connected.
func (s *SSH) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *SSH) connect() error {
	if s.client != nil {
		return nil
	}

	auth, err := s.authMethods()
	if err != nil {
		return err
	}
	clientConfig := &ssh.ClientConfig{
		User:    s.config.User,
		Auth:    auth,
		Timeout: s.config.ConnectTimeout,
		// Network devices rotate host keys too often for pinning to be
		// practical in a polling tool.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
	}

	s.log.Debug("dialing device", "addr", s.config.addr(), "user", s.config.User)
	client, err := ssh.Dial("tcp", s.config.addr(), clientConfig)
	if err != nil {
		return err
	}
	s.client = client
	return nil
}

func (s *SSH) authMethods() ([]ssh.AuthMethod, error) {
	if s.config.IdentityFile != "" {
		key, err := os.ReadFile(s.config.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("read identity file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse identity file: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	return []ssh.AuthMethod{ssh.Password(s.config.Password)}, nil
}

func (s *SSH) runOne(command string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", err
	}
	defer func() { _ = session.Close() }()

	s.log.Debug("executing command", "command", command)
	out, err := session.CombinedOutput(command)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}
