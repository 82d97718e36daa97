package source

import (
	"context"

	"imgres/asset"
	"imgres/common"
	"imgres/names"
	"imgres/storage"
)

// Listing turns files listed by storage into records. It never knows tags.
type Listing struct {
	Backend storage.Backend
	Names   names.Normalizer
}

func (l *Listing) Kind() common.SourceKind {
	return common.SourceKindFileListing
}

func (l *Listing) List(ctx context.Context, scope asset.Scope) ([]asset.Record, error) {
	files, err := l.Backend.ListFiles(ctx, scope)
	if err != nil {
		return nil, err
	}
	records := make([]asset.Record, 0, len(files))
	for _, f := range files {
		base, _ := names.SplitNameAndFormat(f.Name)
		r := asset.NewRecord(l.Names, base, asset.URL(f.URL), common.SourceKindFileListing)
		r.Preferred = f.Preferred
		records = append(records, r)
	}
	return records, nil
}
