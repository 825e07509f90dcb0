package export

import (
	"strings"
	"time"

	"flickrvault/pkg/errors"
	"flickrvault/pkg/flickr"
	"flickrvault/pkg/logger"
	"flickrvault/pkg/ratelimit"
)

// transientRetryDelay is the pause between retries of non-rate-limit
// transport failures
const transientRetryDelay = 2 * time.Second

// photoPriority is the fixed quality preference for photos, highest
// first. Preference order always wins over the server's listing order.
var photoPriority = []string{
	"Original",
	"Large 2048",
	"Large 1600",
	"Large",
	"Medium 800",
	"Medium",
}

// videoPriority is the quality preference for video variants, matched
// by label substring
var videoPriority = []string{
	"Video Original",
	"Site MP4",
	"Mobile MP4",
	"HD MP4",
	"720p",
	"1080p",
}

// SelectPhotoSizes filters the photo preference order to the sizes
// actually present with a usable URL, preserving preference order
func SelectPhotoSizes(sizes []flickr.Size) []flickr.Size {
	selected := make([]flickr.Size, 0, len(photoPriority))
	for _, label := range photoPriority {
		for _, s := range sizes {
			if s.Label == label && s.Source != "" {
				selected = append(selected, s)
				break
			}
		}
	}
	return selected
}

// SelectVideoSize picks the best available video variant, or nil when
// the item has no downloadable video URL at all
func SelectVideoSize(sizes []flickr.Size) *flickr.Size {
	for _, priority := range videoPriority {
		for i := range sizes {
			if strings.Contains(strings.ToLower(sizes[i].Label), strings.ToLower(priority)) && sizes[i].Source != "" {
				return &sizes[i]
			}
		}
	}

	// last resort: anything that looks like a video
	for i := range sizes {
		label := strings.ToLower(sizes[i].Label)
		if (strings.Contains(label, "video") || strings.Contains(label, "mp4")) && sizes[i].Source != "" {
			return &sizes[i]
		}
	}

	return nil
}

// SizeLabels lists the labels of the given sizes in order
func SizeLabels(sizes []flickr.Size) []string {
	labels := make([]string, 0, len(sizes))
	for _, s := range sizes {
		labels = append(labels, s.Label)
	}
	return labels
}

// Cascade drives per-size download attempts for one item
type Cascade struct {
	api    MediaAPI
	store  Storage
	rate   RateController
	sleep  func(time.Duration)
	logger logger.Logger
}

// NewCascade creates a cascade using the given collaborators
func NewCascade(api MediaAPI, store Storage, rate RateController, log logger.Logger) *Cascade {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Cascade{
		api:    api,
		store:  store,
		rate:   rate,
		sleep:  time.Sleep,
		logger: log,
	}
}

// fetchOnce performs one physical download attempt: paced request,
// streamed write, zero-byte detection. A zero-byte artifact is deleted
// and reported as an empty-body error.
func (c *Cascade) fetchOnce(url, path string) (int64, error) {
	c.rate.BeforeRequest()

	body, err := c.api.FetchBytes(url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	written, err := c.store.Save(path, body)
	if err != nil {
		c.store.Delete(path)
		return 0, errors.New(errors.ErrorTypeNetwork, 0, err.Error())
	}

	if written == 0 {
		c.store.Delete(path)
		return 0, errors.New(errors.ErrorTypeEmptyBody, 0, "downloaded file is 0 bytes")
	}

	return written, nil
}

// AttemptLabel downloads one size candidate with the full retry policy:
// rate-limit backoff and transient retries share the controller's
// attempt budget, a zero-byte result is retried once at the same label.
// A nil error means path now holds a non-empty file.
func (c *Cascade) AttemptLabel(url, path string) (int64, error) {
	failures := 0
	emptyRetried := false

	for {
		written, err := c.fetchOnce(url, path)
		if err == nil {
			c.rate.OnResult(ratelimit.OutcomeSuccess)
			return written, nil
		}

		switch errors.TypeOf(err) {
		case errors.ErrorTypeNotFound:
			// permanently gone for this size, advance without retry
			c.rate.OnResult(ratelimit.OutcomeFailure)
			return 0, err

		case errors.ErrorTypeRateLimit:
			c.rate.OnResult(ratelimit.OutcomeRateLimited)
			failures++
			if !c.rate.Backoff(failures) {
				return 0, err
			}

		case errors.ErrorTypeEmptyBody:
			if emptyRetried {
				return 0, err
			}
			emptyRetried = true
			c.logger.WarnWithFields("zero-byte download, retrying same size once", map[string]interface{}{
				"path": path,
			})

		default:
			c.rate.OnResult(ratelimit.OutcomeFailure)
			failures++
			if failures > c.rate.MaxAttempts() {
				return 0, err
			}
			c.logger.WarnWithFields("transient download failure, retrying", map[string]interface{}{
				"attempt": failures,
				"error":   err.Error(),
			})
			c.sleep(transientRetryDelay)
		}
	}
}
