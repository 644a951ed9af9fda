package memory

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// ErrInjected is the cause of every failure injected by the fake transport.
var ErrInjected = errors.New("memory: injected failure")

const progressChunk = 4096

// Transport implements ports.Transport against a Remote.
type Transport struct {
	remote *Remote
	host   string
	user   string

	mu           sync.Mutex
	unknownHost  bool
	trustUnknown bool
	rejectAuth   bool
	connectErr   error
	failAfter    int
	crashMidCopy bool
	corruptSize  bool
	copies       int
	connects     int
	events       []string
}

// NewTransport returns a transport that accepts every connection and copy.
func NewTransport(remote *Remote, host, user string) *Transport {
	return &Transport{remote: remote, host: host, user: user, failAfter: -1}
}

// Remote returns the backing remote file system.
func (t *Transport) Remote() *Remote { return t.remote }

// UnknownHost marks the host as missing from the trust store. Connections
// fail unless trustUnknown is set.
func (t *Transport) UnknownHost(trustUnknown bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unknownHost = true
	t.trustUnknown = trustUnknown
}

// RejectCredentials makes every Connect fail with *domain.AuthenticationError.
func (t *Transport) RejectCredentials() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rejectAuth = true
}

// FailConnect makes every Connect fail with a *domain.ConnectionError wrapping err.
func (t *Transport) FailConnect(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connectErr = err
}

// FailAfter lets k copies succeed and fails every later one. With crash set the
// failing copy leaves a partial temp file behind, as a process crash would.
func (t *Transport) FailAfter(k int, crash bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failAfter = k
	t.crashMidCopy = crash
}

// CorruptSize makes the uploaded temp file one byte short.
func (t *Transport) CorruptSize() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.corruptSize = true
}

// Copies returns the number of committed copies.
func (t *Transport) Copies() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copies
}

// Connects returns the number of successful connections.
func (t *Transport) Connects() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects
}

// Events returns the open and close events in order, e.g. "session.open",
// "channel.open", "channel.close", "session.close".
func (t *Transport) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

func (t *Transport) record(ev string) {
	t.mu.Lock()
	t.events = append(t.events, ev)
	t.mu.Unlock()
}

// Connect implements ports.Transport.
func (t *Transport) Connect(ctx context.Context) (ports.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ConnectionError{Host: t.host, Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connectErr != nil {
		return nil, &domain.ConnectionError{Host: t.host, Err: t.connectErr}
	}
	// host trust is checked before any credential exchange
	if t.unknownHost && !t.trustUnknown {
		return nil, &domain.ConnectionError{Host: t.host, UnknownHost: true}
	}
	if t.rejectAuth {
		return nil, &domain.AuthenticationError{Host: t.host, Username: t.user, Err: ErrInjected}
	}
	if t.unknownHost {
		t.unknownHost = false
	}

	t.connects++
	t.events = append(t.events, "session.open")
	return &session{t: t}, nil
}

type session struct {
	t      *Transport
	mu     sync.Mutex
	closed bool
}

func (s *session) Host() string { return s.t.host }

func (s *session) OpenChannel(ctx context.Context, opts ports.ChannelOptions) (ports.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &domain.ConnectionError{Host: s.t.host, Err: errors.New("session closed")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.ConnectionError{Host: s.t.host, Err: err}
	}
	s.t.record("channel.open")
	return &channel{s: s, opts: opts}, nil
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.t.record("session.close")
	return nil
}

type channel struct {
	s      *session
	opts   ports.ChannelOptions
	closed bool
}

func (c *channel) Copy(ctx context.Context, filename string) (domain.Transfer, error) {
	t := c.s.t
	src := filepath.Join(c.opts.SourceDir, filename)
	tmp := path.Join(c.opts.TempPathDir(), filename+".tmp")
	dst := path.Join(c.opts.DestDir, filename)
	res := domain.Transfer{Filename: filename, RemotePath: dst}

	if c.closed {
		return res, &domain.TransferIOError{Op: "write", Path: tmp, Err: errors.New("channel closed")}
	}
	if err := ctx.Err(); err != nil {
		return res, &domain.TransferIOError{Op: "write", Path: tmp, Err: err}
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return res, &domain.TransferIOError{Op: "read", Path: src, Err: err}
	}

	t.mu.Lock()
	fail := t.failAfter >= 0 && t.copies >= t.failAfter
	crash, corrupt := t.crashMidCopy, t.corruptSize
	t.mu.Unlock()

	if fail {
		if crash {
			t.remote.write(tmp, data[:len(data)/2])
		}
		return res, &domain.TransferIOError{Op: "write", Path: tmp, Err: ErrInjected}
	}

	uploaded := data
	if corrupt && len(uploaded) > 0 {
		uploaded = uploaded[:len(uploaded)-1]
	}
	total := int64(len(data))
	for sent := 0; ; {
		n := min(progressChunk, len(uploaded)-sent)
		sent += n
		if c.opts.Progress != nil {
			c.opts.Progress(domain.Progress{Filename: filename, Sent: int64(sent), Total: total})
		}
		if sent >= len(uploaded) {
			break
		}
	}
	t.remote.write(tmp, uploaded)

	size, _ := t.remote.size(tmp)
	if size != total {
		return res, &domain.TransferIntegrityError{
			Filename: filename, RemotePath: tmp, LocalSize: total, RemoteSize: size,
		}
	}
	if !t.remote.rename(tmp, dst) {
		return res, &domain.TransferIOError{Op: "rename", Path: tmp, Err: os.ErrNotExist}
	}
	t.remote.touch(dst)

	t.mu.Lock()
	t.copies++
	t.mu.Unlock()

	res.Bytes = total
	res.Committed = true
	return res, nil
}

func (c *channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.s.t.record("channel.close")
	return nil
}
