package export

import (
	"io"

	"flickrvault/pkg/flickr"
	"flickrvault/pkg/ratelimit"
)

// MediaAPI defines the remote Flickr operations the exporter consumes
type MediaAPI interface {
	ListAlbums() ([]flickr.Album, error)
	ListItems(albumID string, page, perPage int) (*flickr.ItemPage, error)
	GetItemKind(itemID string) (flickr.MediaKind, error)
	GetSizes(itemID string) ([]flickr.Size, error)
	FetchBytes(url string) (io.ReadCloser, error)
}

// Storage defines the filesystem operations the exporter consumes
type Storage interface {
	EnsureAlbumDir(albumTitle string) (string, error)
	Exists(path string) bool
	Save(path string, r io.Reader) (int64, error)
	Delete(path string) error
}

// RateController paces outbound requests and owns backoff state
type RateController interface {
	BeforeRequest()
	OnResult(outcome ratelimit.Outcome)
	Backoff(attempt int) bool
	MaxAttempts() int
}
