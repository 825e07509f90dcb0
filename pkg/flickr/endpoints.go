package flickr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the Flickr REST endpoint
	BaseURL = "https://api.flickr.com/services/rest"

	// API methods used by the exporter
	MethodPhotosetsGetList   = "flickr.photosets.getList"
	MethodPhotosetsGetPhotos = "flickr.photosets.getPhotos"
	MethodPhotosGetInfo      = "flickr.photos.getInfo"
	MethodPhotosGetSizes     = "flickr.photos.getSizes"

	// MaxPageSize is Flickr's per_page ceiling for photoset listings
	MaxPageSize = 500
)

// MethodURL constructs a REST call URL for the given method and parameters
func MethodURL(baseURL, method, apiKey string, params map[string]string) string {
	values := url.Values{}
	values.Set("method", method)
	values.Set("api_key", apiKey)
	values.Set("format", "json")
	values.Set("nojsoncallback", "1")
	for k, v := range params {
		values.Set(k, v)
	}
	return fmt.Sprintf("%s?%s", baseURL, values.Encode())
}

// ListAlbumsParams builds parameters for photosets.getList
func ListAlbumsParams(userID string) map[string]string {
	return map[string]string{"user_id": userID}
}

// ListItemsParams builds parameters for photosets.getPhotos
func ListItemsParams(albumID, userID string, page, perPage int) map[string]string {
	if perPage <= 0 || perPage > MaxPageSize {
		perPage = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return map[string]string{
		"photoset_id": albumID,
		"user_id":     userID,
		"page":        strconv.Itoa(page),
		"per_page":    strconv.Itoa(perPage),
	}
}

// ExtensionFromURL derives a file extension from a media URL, ignoring any
// query string. Falls back to mp4 for video-looking or unparseable URLs.
func ExtensionFromURL(rawURL, fallback string) string {
	trimmed := rawURL
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndexByte(trimmed, '.'); i >= 0 {
		ext := trimmed[i+1:]
		if ext != "" && len(ext) <= 4 && !strings.ContainsAny(ext, "/\\") {
			return ext
		}
	}
	return fallback
}
