package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"flickrvault/pkg/flickr"
	"flickrvault/pkg/logger"
)

// ItemResult is the terminal outcome of one item
type ItemResult struct {
	ItemID string
	Kind   flickr.MediaKind

	// Success is true when a file was materialized (or already existed)
	Success bool
	// Skipped is true when the file pre-existed and no request was made
	Skipped bool
	Path    string
	Bytes   int64
	Label   string

	// URL is the attempted video URL, for failed-video reporting
	URL string
	// NoURL marks a video with zero candidate URLs; never attempted
	NoURL bool
	// AvailableSizes lists the server-reported labels, for reporting
	AvailableSizes []string
}

// ItemDownloader executes one item's end-to-end retrieval
type ItemDownloader struct {
	api     MediaAPI
	store   Storage
	cascade *Cascade
	logger  logger.Logger
}

// NewItemDownloader creates an item downloader
func NewItemDownloader(api MediaAPI, store Storage, cascade *Cascade, log logger.Logger) *ItemDownloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ItemDownloader{
		api:     api,
		store:   store,
		cascade: cascade,
		logger:  log,
	}
}

// photoFilename builds the deterministic name for a photo size variant
func photoFilename(itemID, label, url string) string {
	ext := flickr.ExtensionFromURL(url, "jpg")
	return fmt.Sprintf("%s_%s.%s", itemID, strings.ReplaceAll(label, " ", "_"), ext)
}

// videoFilename builds the deterministic name for a video variant
func videoFilename(itemID, label, url string) string {
	ext := flickr.ExtensionFromURL(url, "mp4")
	return fmt.Sprintf("%s_video_%s.%s", itemID, strings.ReplaceAll(label, " ", "_"), ext)
}

// Download resolves an item's kind and sizes and runs the fallback
// cascade. The returned result is always terminal; the error reports
// metadata fetch failures that prevented any download attempt.
func (d *ItemDownloader) Download(item flickr.Item, albumDir string) (*ItemResult, error) {
	result := &ItemResult{ItemID: item.ID, Kind: flickr.MediaPhoto}

	kind, err := d.api.GetItemKind(item.ID)
	if err != nil {
		d.logger.WithError(err).WithField("item_id", item.ID).Error("failed to resolve media kind")
		return result, err
	}
	result.Kind = kind

	sizes, err := d.api.GetSizes(item.ID)
	if err != nil {
		d.logger.WithError(err).WithField("item_id", item.ID).Error("failed to get sizes")
		return result, err
	}
	result.AvailableSizes = SizeLabels(sizes)

	switch kind {
	case flickr.MediaVideo:
		d.downloadVideo(item.ID, albumDir, sizes, result)
	default:
		d.downloadPhoto(item.ID, albumDir, sizes, result)
	}

	return result, nil
}

// downloadPhoto walks the photo size cascade until one size sticks
func (d *ItemDownloader) downloadPhoto(itemID, albumDir string, sizes []flickr.Size, result *ItemResult) {
	candidates := SelectPhotoSizes(sizes)
	if len(candidates) > 0 && candidates[0].Label != "Original" {
		d.logger.WarnWithFields("original size not available", map[string]interface{}{
			"item_id": itemID,
			"best":    candidates[0].Label,
		})
	}

	for _, candidate := range candidates {
		path := filepath.Join(albumDir, photoFilename(itemID, candidate.Label, candidate.Source))

		if d.store.Exists(path) {
			d.logger.DebugWithFields("already exists, skipping", map[string]interface{}{
				"path": path,
			})
			result.Success = true
			result.Skipped = true
			result.Path = path
			result.Label = candidate.Label
			return
		}

		written, err := d.cascade.AttemptLabel(candidate.Source, path)
		if err == nil {
			d.logger.InfoWithFields("photo downloaded", map[string]interface{}{
				"item_id": itemID,
				"label":   candidate.Label,
				"bytes":   written,
			})
			result.Success = true
			result.Path = path
			result.Bytes = written
			result.Label = candidate.Label
			return
		}

		d.logger.WarnWithFields("size failed, trying next", map[string]interface{}{
			"item_id": itemID,
			"label":   candidate.Label,
			"error":   err.Error(),
		})
	}
}

// downloadVideo tries the single best video candidate; videos have no
// smaller-size fallback
func (d *ItemDownloader) downloadVideo(itemID, albumDir string, sizes []flickr.Size, result *ItemResult) {
	candidate := SelectVideoSize(sizes)
	if candidate == nil {
		result.NoURL = true
		return
	}

	result.URL = candidate.Source
	result.Label = candidate.Label

	path := filepath.Join(albumDir, videoFilename(itemID, candidate.Label, candidate.Source))

	if d.store.Exists(path) {
		d.logger.DebugWithFields("already exists, skipping", map[string]interface{}{
			"path": path,
		})
		result.Success = true
		result.Skipped = true
		result.Path = path
		return
	}

	written, err := d.cascade.AttemptLabel(candidate.Source, path)
	if err == nil {
		d.logger.InfoWithFields("video downloaded", map[string]interface{}{
			"item_id": itemID,
			"label":   candidate.Label,
			"bytes":   written,
		})
		result.Success = true
		result.Path = path
		result.Bytes = written
		return
	}

	d.logger.WarnWithFields("video download failed", map[string]interface{}{
		"item_id": itemID,
		"label":   candidate.Label,
		"error":   err.Error(),
	})
}
