// Package ssh implements the transport ports over SSH with SFTP file placement.
//
// Host trust follows the OpenSSH known_hosts model: a host whose key is
// listed is accepted, a host whose key changed is always refused, and an
// unknown host is either refused before any credential is sent or, when
// TrustUnknownHosts is set, accepted and appended to the known_hosts file.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// DefaultPort is the SSH port used when Config.Port is zero.
const DefaultPort = 22

var errUnknownHost = errors.New("host key not in known_hosts")

// Config holds the remote transport parameters.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	KeyFile        string
	KnownHostsFile string

	// TrustUnknownHosts accepts and records hosts missing from KnownHostsFile.
	TrustUnknownHosts bool

	// ConnectTimeout bounds dialing and the SSH handshake. Zero means no limit.
	ConnectTimeout time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Transport implements ports.Transport over SSH.
type Transport struct {
	cfg    Config
	logger ports.Logger

	// known_hosts appends are serialized
	mu sync.Mutex
}

// NewTransport creates an SSH transport.
func NewTransport(cfg Config, logger ports.Logger) *Transport {
	return &Transport{cfg: cfg, logger: logger}
}

// hostCheck records why the host key callback refused a key.
type hostCheck struct {
	unknown bool
	changed bool
}

// Connect dials the remote host, verifies its key and authenticates.
func (t *Transport) Connect(ctx context.Context) (ports.Session, error) {
	host := t.cfg.Host

	auth, err := t.authMethods()
	if err != nil {
		return nil, &domain.AuthenticationError{Host: host, Username: t.cfg.Username, Err: err}
	}

	check := &hostCheck{}
	callback, err := t.hostKeyCallback(check)
	if err != nil {
		return nil, &domain.ConnectionError{Host: host, Err: err}
	}

	clientCfg := &ssh.ClientConfig{
		User:            t.cfg.Username,
		Auth:            auth,
		HostKeyCallback: callback,
		Timeout:         t.cfg.ConnectTimeout,
	}

	dialCtx := ctx
	if t.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, t.cfg.ConnectTimeout)
		defer cancel()
	}

	addr := t.cfg.Addr()
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, &domain.ConnectionError{Host: host, Err: err}
	}

	// the handshake itself is not context aware
	stopHandshake := context.AfterFunc(dialCtx, func() { _ = conn.Close() })
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	stopHandshake()
	if err != nil {
		_ = conn.Close()
		return nil, t.classify(err, check)
	}

	client := ssh.NewClient(sshConn, chans, reqs)
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })

	t.logger.Info("connected to remote host",
		ports.String("host", host),
		ports.String("addr", addr),
		ports.String("user", t.cfg.Username),
	)
	return &Session{host: host, client: client, stop: stop, logger: t.logger}, nil
}

func (t *Transport) classify(err error, check *hostCheck) error {
	host := t.cfg.Host
	switch {
	case check.unknown:
		return &domain.ConnectionError{Host: host, UnknownHost: true, Err: err}
	case check.changed:
		return &domain.ConnectionError{Host: host, Err: fmt.Errorf("host key mismatch: %w", err)}
	case strings.Contains(err.Error(), "unable to authenticate"):
		return &domain.AuthenticationError{Host: host, Username: t.cfg.Username, Err: err}
	default:
		return &domain.ConnectionError{Host: host, Err: err}
	}
}

func (t *Transport) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if t.cfg.KeyFile != "" {
		pem, err := os.ReadFile(t.cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse key file: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if t.cfg.Password != "" {
		methods = append(methods, ssh.Password(t.cfg.Password))
	}
	if len(methods) == 0 {
		return nil, errors.New("no password or key file configured")
	}
	return methods, nil
}

func (t *Transport) hostKeyCallback(check *hostCheck) (ssh.HostKeyCallback, error) {
	var known ssh.HostKeyCallback
	if t.cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(t.cfg.KnownHostsFile)
		switch {
		case err == nil:
			known = cb
		case errors.Is(err, os.ErrNotExist):
			// nothing trusted yet
		default:
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		if known != nil {
			err := known(hostname, remote, key)
			if err == nil {
				return nil
			}
			var keyErr *knownhosts.KeyError
			if !errors.As(err, &keyErr) {
				return err
			}
			if len(keyErr.Want) > 0 {
				check.changed = true
				return err
			}
		}
		if !t.cfg.TrustUnknownHosts {
			check.unknown = true
			return errUnknownHost
		}
		return t.learnHost(hostname, key)
	}, nil
}

func (t *Transport) learnHost(hostname string, key ssh.PublicKey) error {
	if t.cfg.KnownHostsFile == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.cfg.KnownHostsFile), 0o700); err != nil {
		return fmt.Errorf("create known_hosts dir: %w", err)
	}
	f, err := os.OpenFile(t.cfg.KnownHostsFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open known_hosts: %w", err)
	}
	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("write known_hosts: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	t.logger.Warn("added unknown host to known_hosts",
		ports.String("host", hostname),
		ports.String("fingerprint", ssh.FingerprintSHA256(key)),
		ports.String("file", t.cfg.KnownHostsFile),
	)
	return nil
}

// Session is one authenticated SSH connection.
type Session struct {
	host   string
	client *ssh.Client
	stop   func() bool
	logger ports.Logger

	once sync.Once
	err  error
}

// Host implements ports.Session.
func (s *Session) Host() string { return s.host }

// Close implements ports.Session. It is safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.stop()
		s.err = s.client.Close()
		if errors.Is(s.err, net.ErrClosed) {
			s.err = nil
		}
		s.logger.Debug("closed remote session", ports.String("host", s.host))
	})
	return s.err
}
