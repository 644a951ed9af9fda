package app

import (
	"context"

	"github.com/bft-labs/syncfiles/internal/ports"
)

// ignoredMedia are never sent from the media directory.
var ignoredMedia = map[string]struct{}{
	".DS_Store": {},
	"log.txt":   {},
}

// mediaCandidates returns media files minus the ignore list and minus names
// already in the media log, in directory order. A nil store has no media.
func mediaCandidates(ctx context.Context, store ports.MediaStore) ([]string, error) {
	if store == nil {
		return nil, nil
	}
	files, err := store.Files(ctx)
	if err != nil {
		return nil, err
	}
	sent, err := store.Sent(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(files))
	for _, name := range files {
		if _, skip := ignoredMedia[name]; skip {
			continue
		}
		if _, done := sent[name]; done {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}
