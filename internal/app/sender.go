package app

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// SenderConfig contains the directories and switches of a send cycle.
type SenderConfig struct {
	// OutgoingDir holds exported batch files waiting to be sent.
	OutgoingDir string

	// RemoteDir receives batch files; RemoteTmpDir, if set, holds their temp names.
	RemoteDir    string
	RemoteTmpDir string

	// MediaRemoteDir receives media files; MediaRemoteTmpDir, if set, holds their temp names.
	MediaRemoteDir    string
	MediaRemoteTmpDir string

	// UpdateHistory marks ledger entries sent after each commit.
	UpdateHistory bool

	// CopyTimeout bounds each single-file copy. Zero means no limit.
	CopyTimeout time.Duration
}

// Sender moves files to the remote host over one session per cycle.
type Sender struct {
	config    SenderConfig
	transport ports.Transport
	archiver  ports.Archiver
	ledger    ports.LedgerRepository
	media     ports.MediaStore
	logger    ports.Logger
	progress  ports.ProgressFunc
	now       func() time.Time
}

// NewSender creates a sender with the given dependencies.
// progress may be nil.
func NewSender(
	config SenderConfig,
	transport ports.Transport,
	archiver ports.Archiver,
	ledger ports.LedgerRepository,
	media ports.MediaStore,
	logger ports.Logger,
	progress ports.ProgressFunc,
) *Sender {
	return &Sender{
		config:    config,
		transport: transport,
		archiver:  archiver,
		ledger:    ledger,
		media:     media,
		logger:    logger,
		progress:  progress,
		now:       time.Now,
	}
}

// Send copies, archives and records each file in order over one session.
// Files committed before a failure stay committed; callers learn what is left
// by listing pending entries again. Archived lists the files moved to the
// archive area, which can be shorter than the requested list when a source
// had already vanished.
func (s *Sender) Send(ctx context.Context, filenames []string) (archived []string, err error) {
	archived = []string{}
	if len(filenames) == 0 {
		return archived, nil
	}

	err = s.withChannel(ctx, s.batchOptions(), func(ch ports.Channel) error {
		for _, name := range filenames {
			if err := s.copy(ctx, ch, name); err != nil {
				return err
			}

			if err := s.archiver.Archive(ctx, name); err != nil {
				var nf *domain.FileNotFoundError
				if !errors.As(err, &nf) {
					return &domain.SendError{Filename: name, Err: err}
				}
				s.logger.Warn("sent file missing from outgoing directory",
					ports.String("file", name),
					ports.Err(err),
				)
			} else {
				archived = append(archived, name)
			}

			if s.config.UpdateHistory {
				if err := s.markSent(ctx, name); err != nil {
					return &domain.SendError{Filename: name, Err: err}
				}
			}
		}
		return nil
	})
	return archived, err
}

// SendMedia copies media files and appends each committed name to the media log.
func (s *Sender) SendMedia(ctx context.Context, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}

	opts := ports.ChannelOptions{
		SourceDir: s.media.Dir(),
		DestDir:   s.config.MediaRemoteDir,
		TempDir:   s.config.MediaRemoteTmpDir,
		Progress:  s.reportProgress,
	}
	return s.withChannel(ctx, opts, func(ch ports.Channel) error {
		for _, name := range filenames {
			if err := s.copy(ctx, ch, name); err != nil {
				return err
			}
			if err := s.media.Append(ctx, name); err != nil {
				return &domain.SendError{Filename: name, Err: err}
			}
		}
		return nil
	})
}

// MediaCandidates returns media files that were never sent.
func (s *Sender) MediaCandidates(ctx context.Context) ([]string, error) {
	return mediaCandidates(ctx, s.media)
}

func (s *Sender) batchOptions() ports.ChannelOptions {
	return ports.ChannelOptions{
		SourceDir: s.config.OutgoingDir,
		DestDir:   s.config.RemoteDir,
		TempDir:   s.config.RemoteTmpDir,
		Progress:  s.reportProgress,
	}
}

// withChannel opens a session and one channel for fn and closes the channel
// before the session on every path.
func (s *Sender) withChannel(ctx context.Context, opts ports.ChannelOptions, fn func(ports.Channel) error) (err error) {
	sess, err := s.transport.Connect(ctx)
	if err != nil {
		return &domain.SendError{Err: err}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Warn("failed to close session", ports.String("host", sess.Host()), ports.Err(cerr))
		}
	}()

	ch, err := sess.OpenChannel(ctx, opts)
	if err != nil {
		return &domain.SendError{Err: err}
	}
	defer func() {
		if cerr := ch.Close(); cerr != nil {
			s.logger.Warn("failed to close channel", ports.String("host", sess.Host()), ports.Err(cerr))
		}
	}()

	return fn(ch)
}

func (s *Sender) copy(ctx context.Context, ch ports.Channel, name string) error {
	copyCtx := ctx
	if s.config.CopyTimeout > 0 {
		var cancel context.CancelFunc
		copyCtx, cancel = context.WithTimeout(ctx, s.config.CopyTimeout)
		defer cancel()
	}

	start := s.now()
	res, err := ch.Copy(copyCtx, name)
	if err == nil && !res.Committed {
		err = &domain.TransferIOError{Op: "rename", Path: res.RemotePath, Err: errors.New("not committed")}
	}
	if err != nil {
		s.logger.Error("copy failed", ports.String("file", name), ports.Err(err))
		return &domain.SendError{Filename: name, Err: err}
	}

	s.logger.Debug("copy committed",
		ports.String("file", name),
		ports.String("remote", res.RemotePath),
		ports.String("size", humanize.Bytes(uint64(res.Bytes))),
		ports.Duration("elapsed", s.now().Sub(start)),
	)
	return nil
}

func (s *Sender) markSent(ctx context.Context, name string) error {
	entry, err := s.ledger.Get(ctx, name)
	if err != nil {
		return err
	}
	entry.MarkSent(s.now())
	if err := s.ledger.Update(ctx, entry); err != nil {
		return err
	}
	s.logger.Debug("ledger entry marked sent", ports.String("file", name))
	return nil
}

func (s *Sender) reportProgress(p domain.Progress) {
	if s.progress != nil {
		s.progress(p)
	}
	if p.Sent == p.Total {
		s.logger.Debug("transfer progress",
			ports.String("file", p.Filename),
			ports.Float64("percent", p.Percent()),
			ports.String("sent", humanize.Bytes(uint64(p.Sent))),
		)
	}
}
