package flickr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"flickrvault/pkg/errors"
	"flickrvault/pkg/logger"
)

// Flickr API-level failure codes
const (
	apiCodeNotFound       = 1
	apiCodeInvalidAPIKey  = 100
	apiCodeLoginFailed    = 98
	apiCodeServiceOffline = 105
)

// Client talks to the Flickr REST API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	apiKey     string
	userID     string
	logger     logger.Logger
}

// NewClient creates a new Flickr API client
func NewClient(apiKey, userID string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": "flickrvault/1.0",
			"Accept":     "application/json",
		},
		baseURL: BaseURL,
		apiKey:  apiKey,
		userID:  userID,
		logger:  log,
	}
}

// SetBaseURL overrides the REST endpoint, used by tests
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, fmt.Sprintf("network error: %v", err))
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus maps an HTTP status to a classified error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	errType := errors.ClassifyStatusCode(resp.StatusCode)
	apiErr := errors.New(errType, resp.StatusCode,
		fmt.Sprintf("unexpected status code: %d", resp.StatusCode))

	switch errType {
	case errors.ErrorTypeRateLimit:
		apiErr.Message = "rate limit exceeded"
		if after := resp.Header.Get("Retry-After"); after != "" {
			if seconds, err := strconv.Atoi(after); err == nil {
				apiErr.RetryAfter = seconds
			}
		}
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status":      resp.StatusCode,
			"url":         resp.Request.URL.String(),
			"retry_after": apiErr.RetryAfter,
		})
	case errors.ErrorTypeNotFound:
		apiErr.Message = "resource not found"
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
	case errors.ErrorTypeAuth:
		apiErr.Message = "authentication required"
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
	case errors.ErrorTypeServerError:
		apiErr.Message = "server error"
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
	default:
		c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
	}

	return apiErr
}

// callMethod performs a REST method call and decodes the JSON response
func (c *Client) callMethod(method string, params map[string]string, target interface{}) error {
	url := MethodURL(c.baseURL, method, c.apiKey, params)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, fmt.Sprintf("failed to create request: %v", err))
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode,
			fmt.Sprintf("failed to read response body: %v", err))
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"method":       method,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode,
			fmt.Sprintf("failed to parse JSON: %v", err))
	}

	return nil
}

// checkStat maps a Flickr API-level failure to a classified error
func checkStat(status apiStatus) error {
	if status.Stat != "fail" {
		return nil
	}

	errType := errors.ErrorTypeUnknown
	switch status.Code {
	case apiCodeNotFound:
		errType = errors.ErrorTypeNotFound
	case apiCodeInvalidAPIKey, apiCodeLoginFailed:
		errType = errors.ErrorTypeAuth
	case apiCodeServiceOffline:
		errType = errors.ErrorTypeServerError
	}

	return errors.New(errType, status.Code, status.Message)
}

// ListAlbums fetches the user's photosets in server order
func (c *Client) ListAlbums() ([]Album, error) {
	var response photosetsListResponse
	if err := c.callMethod(MethodPhotosetsGetList, ListAlbumsParams(c.userID), &response); err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	if err := checkStat(response.apiStatus); err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}

	albums := make([]Album, 0, len(response.Photosets.Photoset))
	for _, ps := range response.Photosets.Photoset {
		created, _ := strconv.ParseInt(ps.DateCreate, 10, 64)
		albums = append(albums, Album{
			ID:        ps.ID,
			Title:     ps.Title.Content,
			ItemCount: int(ps.Photos),
			CreatedAt: created,
		})
	}

	c.logger.InfoWithFields("albums listed", map[string]interface{}{
		"count": len(albums),
	})

	return albums, nil
}

// ListItems fetches one page of an album's items
func (c *Client) ListItems(albumID string, page, perPage int) (*ItemPage, error) {
	var response photosetPhotosResponse
	params := ListItemsParams(albumID, c.userID, page, perPage)
	if err := c.callMethod(MethodPhotosetsGetPhotos, params, &response); err != nil {
		return nil, fmt.Errorf("listing items for album %s: %w", albumID, err)
	}
	if err := checkStat(response.apiStatus); err != nil {
		return nil, fmt.Errorf("listing items for album %s: %w", albumID, err)
	}

	items := make([]Item, 0, len(response.Photoset.Photo))
	for _, p := range response.Photoset.Photo {
		items = append(items, Item{ID: p.ID, Title: p.Title})
	}

	return &ItemPage{
		Items: items,
		Page:  int(response.Photoset.Page),
		Pages: int(response.Photoset.Pages),
		Total: int(response.Photoset.Total),
	}, nil
}

// GetItemKind resolves whether an item is a photo or a video
func (c *Client) GetItemKind(itemID string) (MediaKind, error) {
	var response photoInfoResponse
	params := map[string]string{"photo_id": itemID}
	if err := c.callMethod(MethodPhotosGetInfo, params, &response); err != nil {
		return "", fmt.Errorf("getting info for item %s: %w", itemID, err)
	}
	if err := checkStat(response.apiStatus); err != nil {
		return "", fmt.Errorf("getting info for item %s: %w", itemID, err)
	}

	switch response.Photo.Media {
	case "photo":
		return MediaPhoto, nil
	case "video":
		return MediaVideo, nil
	default:
		return MediaKind(response.Photo.Media), nil
	}
}

// GetSizes fetches the available size variants for an item, preserving
// the server's listing order
func (c *Client) GetSizes(itemID string) ([]Size, error) {
	var response photoSizesResponse
	params := map[string]string{"photo_id": itemID}
	if err := c.callMethod(MethodPhotosGetSizes, params, &response); err != nil {
		return nil, fmt.Errorf("getting sizes for item %s: %w", itemID, err)
	}
	if err := checkStat(response.apiStatus); err != nil {
		return nil, fmt.Errorf("getting sizes for item %s: %w", itemID, err)
	}

	return response.Sizes.Size, nil
}

// FetchBytes streams the body for a media URL. The caller owns the
// returned reader and must close it.
func (c *Client) FetchBytes(url string) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, fmt.Sprintf("failed to create request: %v", err))
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp.Body, nil
}
