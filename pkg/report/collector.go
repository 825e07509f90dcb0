package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"flickrvault/pkg/logger"
)

// FailedPhoto is a photo that exhausted every available size
type FailedPhoto struct {
	Album          string   `json:"album"`
	ItemID         string   `json:"item_id"`
	AvailableSizes []string `json:"available_sizes"`
}

// FailedVideo is a video whose candidate URL never produced bytes
type FailedVideo struct {
	Album  string `json:"album"`
	ItemID string `json:"item_id"`
	URL    string `json:"url"`
	Label  string `json:"label"`
}

// NoURLVideo is a video with no downloadable URL at all; never attempted
type NoURLVideo struct {
	Album          string   `json:"album"`
	ItemID         string   `json:"item_id"`
	AvailableSizes []string `json:"available_sizes"`
}

// Report is the serialized end-of-run error document
type Report struct {
	FailedPhotos []FailedPhoto `json:"failed_photos"`
	FailedVideos []FailedVideo `json:"failed_videos"`
	NoURLVideos  []NoURLVideo  `json:"no_url_videos"`
}

// Total returns the number of recorded failures across all buckets
func (r *Report) Total() int {
	return len(r.FailedPhotos) + len(r.FailedVideos) + len(r.NoURLVideos)
}

// Collector accumulates terminal per-item failures during a run.
// It holds no retry logic; retries belong to the download cascade.
type Collector struct {
	report Report
	logger logger.Logger
}

// NewCollector creates an empty collector
func NewCollector(log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{
		report: Report{
			FailedPhotos: make([]FailedPhoto, 0),
			FailedVideos: make([]FailedVideo, 0),
			NoURLVideos:  make([]NoURLVideo, 0),
		},
		logger: log,
	}
}

// RecordFailedPhoto records a photo that failed at every size
func (c *Collector) RecordFailedPhoto(album, itemID string, availableSizes []string) {
	c.report.FailedPhotos = append(c.report.FailedPhotos, FailedPhoto{
		Album:          album,
		ItemID:         itemID,
		AvailableSizes: availableSizes,
	})
	c.logger.ErrorWithFields("photo failed in all available sizes", map[string]interface{}{
		"album":           album,
		"item_id":         itemID,
		"available_sizes": availableSizes,
	})
}

// RecordFailedVideo records a video whose URL exhausted all retries
func (c *Collector) RecordFailedVideo(album, itemID, url, label string) {
	c.report.FailedVideos = append(c.report.FailedVideos, FailedVideo{
		Album:  album,
		ItemID: itemID,
		URL:    url,
		Label:  label,
	})
	c.logger.ErrorWithFields("video download failed", map[string]interface{}{
		"album":   album,
		"item_id": itemID,
		"label":   label,
	})
}

// RecordNoURLVideo records a video that had no candidate URL
func (c *Collector) RecordNoURLVideo(album, itemID string, availableSizes []string) {
	c.report.NoURLVideos = append(c.report.NoURLVideos, NoURLVideo{
		Album:          album,
		ItemID:         itemID,
		AvailableSizes: availableSizes,
	})
	c.logger.WarnWithFields("no video url found", map[string]interface{}{
		"album":           album,
		"item_id":         itemID,
		"available_sizes": availableSizes,
	})
}

// HasErrors reports whether any failure was recorded
func (c *Collector) HasErrors() bool {
	return c.report.Total() > 0
}

// Report returns the accumulated report
func (c *Collector) Report() *Report {
	return &c.report
}

// Flush writes the report to path, only when non-empty, and logs a
// per-bucket summary
func (c *Collector) Flush(path string) error {
	if !c.HasErrors() {
		c.logger.Info("no errors, all files downloaded successfully")
		return nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(&c.report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode error report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write error report: %w", err)
	}

	c.logger.WarnWithFields("error summary", map[string]interface{}{
		"failed_photos": len(c.report.FailedPhotos),
		"failed_videos": len(c.report.FailedVideos),
		"no_url_videos": len(c.report.NoURLVideos),
		"report":        path,
	})

	return nil
}
