package export

import (
	"bytes"
	"io"
	"testing"
	"time"

	"flickrvault/pkg/errors"
	"flickrvault/pkg/flickr"
	"flickrvault/pkg/logger"
	"flickrvault/pkg/ratelimit"
	"flickrvault/pkg/storage"
)

// fetchResponse is one scripted answer for a media URL
type fetchResponse struct {
	data []byte
	err  error
}

// fakeAPI is a scripted MediaAPI double
type fakeAPI struct {
	albums    []flickr.Album
	items     map[string][]flickr.Item
	kinds     map[string]flickr.MediaKind
	sizes     map[string][]flickr.Size
	responses map[string][]fetchResponse

	listAlbumsErr error
	listItemsErr  map[string]error

	fetchCalls    []string
	metadataCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		items:        make(map[string][]flickr.Item),
		kinds:        make(map[string]flickr.MediaKind),
		sizes:        make(map[string][]flickr.Size),
		responses:    make(map[string][]fetchResponse),
		listItemsErr: make(map[string]error),
	}
}

func (f *fakeAPI) ListAlbums() ([]flickr.Album, error) {
	if f.listAlbumsErr != nil {
		return nil, f.listAlbumsErr
	}
	return f.albums, nil
}

func (f *fakeAPI) ListItems(albumID string, page, perPage int) (*flickr.ItemPage, error) {
	if err := f.listItemsErr[albumID]; err != nil {
		return nil, err
	}
	all := f.items[albumID]

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}

	pages := (len(all) + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}

	return &flickr.ItemPage{
		Items: all[start:end],
		Page:  page,
		Pages: pages,
		Total: len(all),
	}, nil
}

func (f *fakeAPI) GetItemKind(itemID string) (flickr.MediaKind, error) {
	f.metadataCalls++
	if kind, ok := f.kinds[itemID]; ok {
		return kind, nil
	}
	return flickr.MediaPhoto, nil
}

func (f *fakeAPI) GetSizes(itemID string) ([]flickr.Size, error) {
	f.metadataCalls++
	return f.sizes[itemID], nil
}

// FetchBytes replays scripted responses; the last response for a URL is
// sticky so retries keep seeing it
func (f *fakeAPI) FetchBytes(url string) (io.ReadCloser, error) {
	f.fetchCalls = append(f.fetchCalls, url)

	queue := f.responses[url]
	if len(queue) == 0 {
		return nil, errors.New(errors.ErrorTypeNotFound, 404, "no response scripted for "+url)
	}

	resp := queue[0]
	if len(queue) > 1 {
		f.responses[url] = queue[1:]
	}

	if resp.err != nil {
		return nil, resp.err
	}
	return io.NopCloser(bytes.NewReader(resp.data)), nil
}

func (f *fakeAPI) fetchCount(url string) int {
	n := 0
	for _, call := range f.fetchCalls {
		if call == url {
			n++
		}
	}
	return n
}

// respond scripts responses for a URL in order
func (f *fakeAPI) respond(url string, responses ...fetchResponse) {
	f.responses[url] = responses
}

func ok(data string) fetchResponse {
	return fetchResponse{data: []byte(data)}
}

func fail(errType errors.ErrorType, code int) fetchResponse {
	return fetchResponse{err: errors.New(errType, code, "scripted failure")}
}

// sleepRecorder captures sleeps instead of blocking
type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

// testRig bundles the collaborators for cascade and downloader tests
type testRig struct {
	api   *fakeAPI
	store *storage.Manager
	rate  *ratelimit.Controller
	rec   *sleepRecorder
	log   *logger.TestLogger
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	store, err := storage.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("creating storage manager: %v", err)
	}

	rec := &sleepRecorder{}
	rate := ratelimit.New(ratelimit.Config{
		BaseDelay:   0,
		BackoffBase: 2 * time.Second,
		MaxAttempts: 5,
		Adaptive:    false,
		Sleep:       rec.sleep,
	}, logger.NewTestLogger())

	return &testRig{
		api:   newFakeAPI(),
		store: store,
		rate:  rate,
		rec:   rec,
		log:   logger.NewTestLogger(),
	}
}

func (r *testRig) cascade() *Cascade {
	c := NewCascade(r.api, r.store, r.rate, r.log)
	c.sleep = r.rec.sleep
	return c
}

func (r *testRig) downloader() *ItemDownloader {
	return NewItemDownloader(r.api, r.store, r.cascade(), r.log)
}

// photoSizes builds a size list with URLs derived from the labels
func photoSizes(itemID string, labels ...string) []flickr.Size {
	sizes := make([]flickr.Size, 0, len(labels))
	for _, label := range labels {
		sizes = append(sizes, flickr.Size{
			Label:  label,
			Source: sizeURL(itemID, label),
		})
	}
	return sizes
}

func sizeURL(itemID, label string) string {
	return "https://live.example/" + itemID + "_" + label + ".jpg"
}
