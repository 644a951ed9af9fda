package ports

import "context"

// Archiver moves a sent file out of the outgoing directory.
type Archiver interface {
	// Archive moves filename to the archive area.
	// Returns *domain.FileNotFoundError if the source is gone.
	Archive(ctx context.Context, filename string) error
}

// MediaStore is the untracked media side channel: a directory of files plus an
// append-only log of the names already sent.
type MediaStore interface {
	// Dir returns the local media directory.
	Dir() string

	// Files returns the names of regular files in the media directory.
	Files(ctx context.Context) ([]string, error)

	// Sent returns the set of logged filenames.
	Sent(ctx context.Context) (map[string]struct{}, error)

	// Append records filename as sent.
	Append(ctx context.Context, filename string) error
}
