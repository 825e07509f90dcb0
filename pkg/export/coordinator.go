package export

import (
	"fmt"

	"flickrvault/pkg/config"
	"flickrvault/pkg/errors"
	"flickrvault/pkg/flickr"
	"flickrvault/pkg/ledger"
	"flickrvault/pkg/logger"
	"flickrvault/pkg/report"
)

// Coordinator sequences the export run: albums, items, ledger updates,
// error collection. Strictly sequential; one request in flight at most.
type Coordinator struct {
	cfg       *config.Config
	api       MediaAPI
	store     Storage
	items     *ItemDownloader
	ledger    *ledger.Ledger
	collector *report.Collector
	logger    logger.Logger
}

// NewCoordinator wires the run coordinator
func NewCoordinator(
	cfg *config.Config,
	api MediaAPI,
	store Storage,
	items *ItemDownloader,
	led *ledger.Ledger,
	collector *report.Collector,
	log logger.Logger,
) *Coordinator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Coordinator{
		cfg:       cfg,
		api:       api,
		store:     store,
		items:     items,
		ledger:    led,
		collector: collector,
		logger:    log,
	}
}

// Run exports every requested album. Item-level failures are deferred
// to the end-of-run report; only authentication failures abort.
func (c *Coordinator) Run() error {
	albums, err := c.api.ListAlbums()
	if err != nil {
		return fmt.Errorf("listing albums: %w", err)
	}

	state := c.ledger.Load()
	pending := c.filterAlbums(albums, state)

	c.logger.InfoWithFields("starting export", map[string]interface{}{
		"total_albums":   len(albums),
		"pending_albums": len(pending),
		"single_album":   c.cfg.Export.Album,
	})

	for _, album := range pending {
		if err := c.processAlbum(album, state); err != nil {
			if errors.TypeOf(err) == errors.ErrorTypeAuth {
				return fmt.Errorf("processing album %q: %w", album.Title, err)
			}
			// album stays incomplete; a later run picks it up again
			c.logger.WithError(err).WithField("album", album.Title).Error("album processing aborted")
			continue
		}

		state.MarkComplete(album.ID)
		if err := c.ledger.Save(state); err != nil {
			return fmt.Errorf("persisting progress after album %q: %w", album.Title, err)
		}
		c.logger.InfoWithFields("album completed", map[string]interface{}{
			"album": album.Title,
		})
	}

	errorsPath := c.cfg.Output.ErrorsFile
	if err := c.collector.Flush(errorsPath); err != nil {
		return fmt.Errorf("writing error report: %w", err)
	}

	c.logger.Info("export run finished")
	return nil
}

// filterAlbums applies ledger completion and the single-album override.
// The override selects exactly the named album even when the ledger has
// it marked complete.
func (c *Coordinator) filterAlbums(albums []flickr.Album, state *ledger.State) []flickr.Album {
	pending := make([]flickr.Album, 0, len(albums))

	if c.cfg.Export.Album != "" {
		for _, album := range albums {
			if album.Title == c.cfg.Export.Album {
				pending = append(pending, album)
			}
		}
		if len(pending) == 0 {
			c.logger.WarnWithFields("requested album not found", map[string]interface{}{
				"album": c.cfg.Export.Album,
			})
		}
		return pending
	}

	for _, album := range albums {
		if state.IsComplete(album.ID) {
			c.logger.DebugWithFields("skipping completed album", map[string]interface{}{
				"album": album.Title,
			})
			continue
		}
		pending = append(pending, album)
	}
	return pending
}

// processAlbum walks one album's items page by page, routing every
// terminal failure to the error collector
func (c *Coordinator) processAlbum(album flickr.Album, state *ledger.State) error {
	c.logger.InfoWithFields("processing album", map[string]interface{}{
		"album": album.Title,
		"items": album.ItemCount,
	})

	state.SetCurrent(album.ID)
	if err := c.ledger.Save(state); err != nil {
		return fmt.Errorf("recording album start: %w", err)
	}

	albumDir, err := c.store.EnsureAlbumDir(album.Title)
	if err != nil {
		return err
	}

	page := 1
	for {
		items, err := c.api.ListItems(album.ID, page, c.cfg.Export.PageSize)
		if err != nil {
			return fmt.Errorf("listing page %d: %w", page, err)
		}

		for _, item := range items.Items {
			c.processItem(item, album, albumDir)
		}

		if page >= items.Pages || len(items.Items) == 0 {
			break
		}
		page++
	}

	return nil
}

// processItem runs one item to a terminal outcome and records failures
func (c *Coordinator) processItem(item flickr.Item, album flickr.Album, albumDir string) {
	result, err := c.items.Download(item, albumDir)
	if err != nil {
		// metadata fetch failed; classify by what we know of the kind
		if result.Kind == flickr.MediaVideo {
			c.collector.RecordFailedVideo(album.Title, item.ID, result.URL, result.Label)
		} else {
			c.collector.RecordFailedPhoto(album.Title, item.ID, result.AvailableSizes)
		}
		return
	}

	if result.Success {
		return
	}

	switch {
	case result.NoURL:
		c.collector.RecordNoURLVideo(album.Title, item.ID, result.AvailableSizes)
	case result.Kind == flickr.MediaVideo:
		c.collector.RecordFailedVideo(album.Title, item.ID, result.URL, result.Label)
	default:
		c.collector.RecordFailedPhoto(album.Title, item.ID, result.AvailableSizes)
	}
}
