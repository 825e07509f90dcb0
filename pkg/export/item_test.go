package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flickrvault/pkg/errors"
	"flickrvault/pkg/flickr"
)

func TestDownloadPhotoPrefersOriginal(t *testing.T) {
	rig := newTestRig(t)
	d := rig.downloader()

	item := flickr.Item{ID: "555"}
	rig.api.sizes["555"] = photoSizes("555", "Medium", "Large", "Original")
	rig.api.respond(sizeURL("555", "Original"), ok("origbytes"))

	result, err := d.Download(item, rig.store.BaseDir())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Original", result.Label)
	assert.Equal(t, flickr.MediaPhoto, result.Kind)
	assert.Equal(t, int64(9), result.Bytes)
	assert.Equal(t, filepath.Join(rig.store.BaseDir(), "555_Original.jpg"), result.Path)

	// lesser sizes were never requested
	assert.Equal(t, 0, rig.api.fetchCount(sizeURL("555", "Medium")))
	assert.Equal(t, 0, rig.api.fetchCount(sizeURL("555", "Large")))
}

func TestDownloadPhotoFallsBackOnNotFound(t *testing.T) {
	rig := newTestRig(t)
	d := rig.downloader()

	item := flickr.Item{ID: "555"}
	rig.api.sizes["555"] = photoSizes("555", "Original", "Large", "Medium")
	rig.api.respond(sizeURL("555", "Original"), fail(errors.ErrorTypeNotFound, 404))
	rig.api.respond(sizeURL("555", "Large"), ok("largebytes"))

	result, err := d.Download(item, rig.store.BaseDir())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Large", result.Label)
	assert.Equal(t, 1, rig.api.fetchCount(sizeURL("555", "Original")))
	assert.Equal(t, 0, rig.api.fetchCount(sizeURL("555", "Medium")))
}

func TestDownloadPhotoExhaustsAllSizes(t *testing.T) {
	rig := newTestRig(t)
	d := rig.downloader()

	item := flickr.Item{ID: "555"}
	rig.api.sizes["555"] = photoSizes("555", "Original", "Large 2048", "Large 1600", "Large", "Medium")
	// every size is permanently gone

	result, err := d.Download(item, rig.store.BaseDir())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, []string{"Original", "Large 2048", "Large 1600", "Large", "Medium"}, result.AvailableSizes)
}

func TestDownloadSkipsExistingFile(t *testing.T) {
	rig := newTestRig(t)
	d := rig.downloader()

	item := flickr.Item{ID: "555"}
	rig.api.sizes["555"] = photoSizes("555", "Original")

	path := filepath.Join(rig.store.BaseDir(), "555_Original.jpg")
	require.NoError(t, os.WriteFile(path, []byte("already here"), 0644))

	result, err := d.Download(item, rig.store.BaseDir())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.Skipped)
	assert.Empty(t, rig.api.fetchCalls, "no network call for an existing file")
}

func TestDownloadZeroByteLeftoverIsNotASkip(t *testing.T) {
	rig := newTestRig(t)
	d := rig.downloader()

	item := flickr.Item{ID: "555"}
	rig.api.sizes["555"] = photoSizes("555", "Original")
	rig.api.respond(sizeURL("555", "Original"), ok("fresh"))

	path := filepath.Join(rig.store.BaseDir(), "555_Original.jpg")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	result, err := d.Download(item, rig.store.BaseDir())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.Skipped)
	assert.Equal(t, 1, rig.api.fetchCount(sizeURL("555", "Original")))
}

func TestDownloadVideoBestCandidate(t *testing.T) {
	rig := newTestRig(t)
	d := rig.downloader()

	item := flickr.Item{ID: "777"}
	rig.api.kinds["777"] = flickr.MediaVideo
	rig.api.sizes["777"] = []flickr.Size{
		{Label: "Mobile MP4", Source: "https://live.example/777_mobile.mp4"},
		{Label: "Video Original", Source: "https://live.example/777_orig.mov"},
	}
	rig.api.respond("https://live.example/777_orig.mov", ok("movbytes"))

	result, err := d.Download(item, rig.store.BaseDir())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, flickr.MediaVideo, result.Kind)
	assert.Equal(t, "Video Original", result.Label)
	assert.Equal(t, filepath.Join(rig.store.BaseDir(), "777_video_Video_Original.mov"), result.Path)
}

func TestDownloadVideoWithoutURLIsTerminal(t *testing.T) {
	rig := newTestRig(t)
	d := rig.downloader()

	item := flickr.Item{ID: "777"}
	rig.api.kinds["777"] = flickr.MediaVideo
	rig.api.sizes["777"] = []flickr.Size{
		{Label: "Square", Source: "sq"},
		{Label: "Thumbnail", Source: "th"},
	}

	result, err := d.Download(item, rig.store.BaseDir())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.True(t, result.NoURL)
	assert.Equal(t, []string{"Square", "Thumbnail"}, result.AvailableSizes)
	assert.Empty(t, rig.api.fetchCalls, "no-url videos are never attempted")
}

func TestDownloadVideoFailureKeepsURLForReporting(t *testing.T) {
	rig := newTestRig(t)
	d := rig.downloader()

	item := flickr.Item{ID: "777"}
	rig.api.kinds["777"] = flickr.MediaVideo
	url := "https://live.example/777_site.mp4"
	rig.api.sizes["777"] = []flickr.Size{{Label: "Site MP4", Source: url}}
	rig.api.respond(url, fail(errors.ErrorTypeNotFound, 404))

	result, err := d.Download(item, rig.store.BaseDir())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.False(t, result.NoURL)
	assert.Equal(t, url, result.URL)
	assert.Equal(t, "Site MP4", result.Label)
}

func TestVideoFilenameExtensionFallback(t *testing.T) {
	assert.Equal(t, "777_video_Site_MP4.mp4", videoFilename("777", "Site MP4", "https://live.example/stream?id=7"))
	assert.Equal(t, "555_Original.png", photoFilename("555", "Original", "https://live.example/x.png?s=1"))
}
