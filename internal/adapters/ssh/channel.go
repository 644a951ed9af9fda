package ssh

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/sftp"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// OpenChannel implements ports.Session by starting an SFTP subsystem.
func (s *Session) OpenChannel(ctx context.Context, opts ports.ChannelOptions) (ports.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ConnectionError{Host: s.host, Err: err}
	}
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, &domain.ConnectionError{Host: s.host, Err: err}
	}
	return &Channel{client: client, conn: s.client, opts: opts, logger: s.logger, now: time.Now}, nil
}

// Channel places files on the remote host over SFTP.
type Channel struct {
	client *sftp.Client
	conn   io.Closer
	opts   ports.ChannelOptions
	logger ports.Logger
	now    func() time.Time
}

// Copy uploads SourceDir/filename to "<name>.tmp", checks its size, renames it
// to DestDir/filename and refreshes the modification time. SFTP requests do not
// observe ctx, so a done ctx closes the whole connection to unblock them.
func (c *Channel) Copy(ctx context.Context, filename string) (domain.Transfer, error) {
	src := filepath.Join(c.opts.SourceDir, filename)
	tmp := path.Join(c.opts.TempPathDir(), filename+".tmp")
	dst := path.Join(c.opts.DestDir, filename)
	res := domain.Transfer{Filename: filename, RemotePath: dst}

	in, err := os.Open(src)
	if err != nil {
		return res, &domain.TransferIOError{Op: "read", Path: src, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return res, &domain.TransferIOError{Op: "read", Path: src, Err: err}
	}
	total := info.Size()

	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	out, err := c.client.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return res, ioError(ctx, "write", tmp, err)
	}

	pr := &progressReader{ctx: ctx, r: in, filename: filename, total: total, fn: c.opts.Progress}
	n, err := io.Copy(out, pr)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return res, ioError(ctx, "write", tmp, err)
	}
	if total == 0 && c.opts.Progress != nil {
		c.opts.Progress(domain.Progress{Filename: filename})
	}

	st, err := c.client.Stat(tmp)
	if err != nil {
		return res, ioError(ctx, "stat", tmp, err)
	}
	if st.Size() != total {
		return res, &domain.TransferIntegrityError{
			Filename:   filename,
			RemotePath: tmp,
			LocalSize:  total,
			RemoteSize: st.Size(),
		}
	}

	if err := c.rename(tmp, dst); err != nil {
		return res, ioError(ctx, "rename", tmp, err)
	}

	// watchers on the remote side key off the final name's mtime
	now := c.now()
	if err := c.client.Chtimes(dst, now, now); err != nil {
		c.logger.Warn("failed to refresh remote mtime",
			ports.String("path", dst),
			ports.Err(err),
		)
	}

	c.logger.Info("file sent",
		ports.String("file", filename),
		ports.String("remote", dst),
		ports.String("size", humanize.Bytes(uint64(n))),
	)

	res.Bytes = n
	res.Committed = true
	return res, nil
}

// ioError reports the ctx error instead of the connection teardown it caused.
func ioError(ctx context.Context, op, path string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return &domain.TransferIOError{Op: op, Path: path, Err: err}
}

// rename prefers the atomic posix-rename extension and falls back to a plain
// SFTP rename after clearing the target.
func (c *Channel) rename(from, to string) error {
	err := c.client.PosixRename(from, to)
	if err == nil {
		return nil
	}
	if rmErr := c.client.Remove(to); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return err
	}
	return c.client.Rename(from, to)
}

// Close implements ports.Channel.
func (c *Channel) Close() error {
	err := c.client.Close()
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type progressReader struct {
	ctx      context.Context
	r        io.Reader
	filename string
	sent     int64
	total    int64
	fn       ports.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(domain.Progress{Filename: p.filename, Sent: p.sent, Total: p.total})
		}
	}
	return n, err
}
