package fs

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// Archiver implements ports.Archiver by moving files between two local directories.
type Archiver struct {
	srcDir string
	dstDir string
	logger ports.Logger
}

// NewArchiver creates an archiver moving files from srcDir to dstDir.
func NewArchiver(srcDir, dstDir string, logger ports.Logger) *Archiver {
	return &Archiver{srcDir: srcDir, dstDir: dstDir, logger: logger}
}

// Archive moves filename from the outgoing directory to the archive directory.
// A missing source yields *domain.FileNotFoundError.
func (a *Archiver) Archive(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src := filepath.Join(a.srcDir, filename)
	dst := filepath.Join(a.dstDir, filename)

	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return &domain.FileNotFoundError{Filename: filename, Path: src, Err: err}
		}
		return err
	}

	if err := os.MkdirAll(a.dstDir, 0o755); err != nil {
		return err
	}

	err := os.Rename(src, dst)
	if err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			if errors.Is(err, iofs.ErrNotExist) {
				return &domain.FileNotFoundError{Filename: filename, Path: src, Err: err}
			}
			return err
		}
		// outgoing/ and archive/ live on different devices
		if err := moveByCopy(src, dst); err != nil {
			return err
		}
	}

	a.logger.Debug("archived file",
		ports.String("file", filename),
		ports.String("archive", dst),
	)
	return nil
}

func moveByCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Remove(src)
}
