package source

import (
	"context"
	"os"

	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
)

// FileSource reads Path on every fetch and returns its full contents
// as a single entry's RawContents. A shared-RF source: re-reading the
// same unchanged file is expected to be filtered out downstream by the
// read-filter keyed on content hash, not by the source itself.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) ([]entry.Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferr.NewSourceError(ferr.SourceTransient, "file", err)
		}
		return nil, ferr.NewSourceError(ferr.SourceParse, "file", err)
	}
	return []entry.Entry{{ID: contentHashID(data), RawContents: string(data)}}, nil
}
