package flickr

import (
	"bytes"
	"strconv"
)

// MediaKind distinguishes photos from videos
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// Album is a Flickr photoset: the unit of resumability
type Album struct {
	ID        string
	Title     string
	ItemCount int
	CreatedAt int64
}

// Item is one photo or video belonging to an album
type Item struct {
	ID    string
	Title string
}

// ItemPage is one page of an album's item listing
type ItemPage struct {
	Items []Item
	Page  int
	Pages int
	Total int
}

// Size describes one available quality variant of an item.
// Source is empty when the server lists the label without a URL.
type Size struct {
	Label  string `json:"label"`
	Source string `json:"source"`
	Width  Pixels `json:"width"`
	Height Pixels `json:"height"`
}

// Pixels is a dimension that Flickr serves either as a number or a
// quoted string depending on the size variant
type Pixels int

func (p *Pixels) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*p = Pixels(n)
	return nil
}

// wire types below mirror the REST responses

type apiStatus struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type photosetsListResponse struct {
	apiStatus
	Photosets struct {
		Photoset []struct {
			ID         string  `json:"id"`
			DateCreate string  `json:"date_create"`
			Photos     Pixels  `json:"photos"`
			Title      content `json:"title"`
		} `json:"photoset"`
	} `json:"photosets"`
}

type photosetPhotosResponse struct {
	apiStatus
	Photoset struct {
		Photo []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"photo"`
		Page  Pixels `json:"page"`
		Pages Pixels `json:"pages"`
		Total Pixels `json:"total"`
	} `json:"photoset"`
}

type photoInfoResponse struct {
	apiStatus
	Photo struct {
		ID    string `json:"id"`
		Media string `json:"media"`
	} `json:"photo"`
}

type photoSizesResponse struct {
	apiStatus
	Sizes struct {
		Size []Size `json:"size"`
	} `json:"sizes"`
}

// content unwraps Flickr's {"_content": "..."} wrapper
type content struct {
	Content string `json:"_content"`
}
