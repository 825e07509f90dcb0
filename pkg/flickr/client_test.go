package flickr

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flickrvault/pkg/errors"
	"flickrvault/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("testkey", "12345@N00", 5*time.Second, logger.NewTestLogger())
	client.SetBaseURL(server.URL)
	return client, server
}

func TestListAlbums(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, MethodPhotosetsGetList, r.URL.Query().Get("method"))
		assert.Equal(t, "testkey", r.URL.Query().Get("api_key"))
		assert.Equal(t, "12345@N00", r.URL.Query().Get("user_id"))
		assert.Equal(t, "1", r.URL.Query().Get("nojsoncallback"))

		fmt.Fprint(w, `{
			"photosets": {"photoset": [
				{"id": "72157600001", "date_create": "1370000000", "photos": 3, "title": {"_content": "Julio 2013"}},
				{"id": "72157600002", "date_create": "1380000000", "photos": "12", "title": {"_content": "Roadtrip"}}
			]},
			"stat": "ok"
		}`)
	}))

	albums, err := client.ListAlbums()
	require.NoError(t, err)
	require.Len(t, albums, 2)

	assert.Equal(t, "72157600001", albums[0].ID)
	assert.Equal(t, "Julio 2013", albums[0].Title)
	assert.Equal(t, 3, albums[0].ItemCount)
	assert.Equal(t, int64(1370000000), albums[0].CreatedAt)
	assert.Equal(t, 12, albums[1].ItemCount)
}

func TestListItemsPagination(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "72157600001", r.URL.Query().Get("photoset_id"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "500", r.URL.Query().Get("per_page"))

		fmt.Fprint(w, `{
			"photoset": {
				"photo": [{"id": "111", "title": "first"}, {"id": "222", "title": "second"}],
				"page": "2", "pages": "3", "total": "1200"
			},
			"stat": "ok"
		}`)
	}))

	page, err := client.ListItems("72157600001", 2, 500)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 1200, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "111", page.Items[0].ID)
}

func TestGetItemKind(t *testing.T) {
	media := "photo"
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "555", r.URL.Query().Get("photo_id"))
		fmt.Fprintf(w, `{"photo": {"id": "555", "media": %q}, "stat": "ok"}`, media)
	}))

	kind, err := client.GetItemKind("555")
	require.NoError(t, err)
	assert.Equal(t, MediaPhoto, kind)

	media = "video"
	kind, err = client.GetItemKind("555")
	require.NoError(t, err)
	assert.Equal(t, MediaVideo, kind)
}

func TestGetSizesPreservesServerOrder(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"sizes": {"size": [
				{"label": "Medium", "source": "https://live.example/m.jpg", "width": "500", "height": 333},
				{"label": "Original", "source": "https://live.example/o.jpg", "width": 4000, "height": 3000}
			]},
			"stat": "ok"
		}`)
	}))

	sizes, err := client.GetSizes("555")
	require.NoError(t, err)
	require.Len(t, sizes, 2)

	assert.Equal(t, "Medium", sizes[0].Label)
	assert.Equal(t, Pixels(500), sizes[0].Width)
	assert.Equal(t, "Original", sizes[1].Label)
	assert.Equal(t, Pixels(3000), sizes[1].Height)
}

func TestAPIFailureClassification(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected errors.ErrorType
	}{
		{"photoset not found", 1, errors.ErrorTypeNotFound},
		{"invalid api key", 100, errors.ErrorTypeAuth},
		{"service offline", 105, errors.ErrorTypeServerError},
		{"anything else", 42, errors.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"stat": "fail", "code": %d, "message": "boom"}`, tt.code)
			}))

			_, err := client.ListAlbums()
			require.Error(t, err)
			assert.Equal(t, tt.expected, errors.TypeOf(err))
		})
	}
}

func TestFetchBytesClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		expected   errors.ErrorType
	}{
		{"rate limited", http.StatusTooManyRequests, "30", errors.ErrorTypeRateLimit},
		{"gone", http.StatusNotFound, "", errors.ErrorTypeNotFound},
		{"server error", http.StatusInternalServerError, "", errors.ErrorTypeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
			}))

			_, err := client.FetchBytes(client.baseURL + "/media/555_o.jpg")
			require.Error(t, err)
			assert.Equal(t, tt.expected, errors.TypeOf(err))

			if tt.retryAfter != "" {
				var apiErr *errors.Error
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, 30, apiErr.RetryAfter)
			}
		})
	}
}

func TestFetchBytesStreamsBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpegbytes"))
	}))

	body, err := client.FetchBytes(client.baseURL + "/media/555_o.jpg")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "jpegbytes", string(data))
}

func TestExtensionFromURL(t *testing.T) {
	tests := []struct {
		url      string
		fallback string
		expected string
	}{
		{"https://live.example/555_o.jpg", "jpg", "jpg"},
		{"https://live.example/555_o.png?extra=1", "jpg", "png"},
		{"https://live.example/videostream?id=5", "mp4", "mp4"},
		{"https://live.example/site.example/video", "mp4", "mp4"},
		{"https://live.example/clip.longext", "mp4", "mp4"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExtensionFromURL(tt.url, tt.fallback), tt.url)
	}
}
