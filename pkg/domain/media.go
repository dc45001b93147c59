package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MediaKind identifies a MediaItem variant.
type MediaKind string

const (
	MediaVideo   MediaKind = "video"
	MediaLink    MediaKind = "link"
	MediaImage   MediaKind = "image"
	MediaAudio   MediaKind = "audio"
	MediaUnknown MediaKind = "unknown"
)

// MediaItem is a typed reference to an external media asset.
// The set of implementations is closed: Video, Link, Image, Audio and UnknownMedia.
type MediaItem interface {
	Kind() MediaKind
	Source() string
	isMedia()
}

// Video references a hosted or file-based video.
type Video struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Autoplay    bool   `json:"autoplay,omitempty"`
	Width       string `json:"width,omitempty"`
	Height      string `json:"height,omitempty"`
}

// Link references an external page shown as a preview card.
type Link struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

// Image references a still image.
type Image struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Width       string `json:"width,omitempty"`
	Height      string `json:"height,omitempty"`
}

// Audio references an audio file.
type Audio struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Autoplay    bool   `json:"autoplay,omitempty"`
}

// UnknownMedia keeps an item whose type is not recognized, so it can be passed through
// instead of dropped. Raw holds the original fields.
type UnknownMedia struct {
	Type string
	URL  string
	Raw  map[string]any
}

func (Video) Kind() MediaKind        { return MediaVideo }
func (Link) Kind() MediaKind         { return MediaLink }
func (Image) Kind() MediaKind        { return MediaImage }
func (Audio) Kind() MediaKind        { return MediaAudio }
func (UnknownMedia) Kind() MediaKind { return MediaUnknown }

func (m Video) Source() string        { return m.URL }
func (m Link) Source() string         { return m.URL }
func (m Image) Source() string        { return m.URL }
func (m Audio) Source() string        { return m.URL }
func (m UnknownMedia) Source() string { return m.URL }

func (Video) isMedia()        {}
func (Link) isMedia()         {}
func (Image) isMedia()        {}
func (Audio) isMedia()        {}
func (UnknownMedia) isMedia() {}

// MediaList is the ordered media of a node. It (de)serializes each item with its "type" tag.
type MediaList []MediaItem

// MarshalJSON writes every item as an object carrying its "type" discriminator.
func (l MediaList) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(l))
	for i, item := range l {
		m, err := MediaToMap(item)
		if err != nil {
			return nil, fmt.Errorf("media %d: %w", i, err)
		}
		out = append(out, m)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a list of tagged objects. Entries that are not objects become UnknownMedia.
func (l *MediaList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	list := make(MediaList, 0, len(raw))
	for _, entry := range raw {
		list = append(list, ParseMediaItem(entry))
	}
	*l = list
	return nil
}

// ParseMediaItem converts one raw media entry into its variant.
// It never fails: unrecognized shapes and types become UnknownMedia.
func ParseMediaItem(raw any) MediaItem {
	m, ok := raw.(map[string]any)
	if !ok {
		return UnknownMedia{Raw: map[string]any{"value": raw}}
	}

	typ := stringField(m, "type")
	url := stringField(m, "url")

	switch MediaKind(typ) {
	case MediaVideo:
		return Video{
			URL:         url,
			Title:       stringField(m, "title"),
			Description: stringField(m, "description"),
			Autoplay:    boolField(m, "autoplay"),
			Width:       stringField(m, "width"),
			Height:      stringField(m, "height"),
		}
	case MediaLink:
		return Link{
			URL:         url,
			Title:       stringField(m, "title"),
			Description: stringField(m, "description"),
			Image:       stringField(m, "image"),
			Favicon:     stringField(m, "favicon"),
			Domain:      stringField(m, "domain"),
		}
	case MediaImage:
		return Image{
			URL:         url,
			Title:       stringField(m, "title"),
			Description: stringField(m, "description"),
			Width:       stringField(m, "width"),
			Height:      stringField(m, "height"),
		}
	case MediaAudio:
		return Audio{
			URL:         url,
			Title:       stringField(m, "title"),
			Description: stringField(m, "description"),
			Autoplay:    boolField(m, "autoplay"),
		}
	default:
		return UnknownMedia{Type: typ, URL: url, Raw: m}
	}
}

// MediaToMap returns the serialized form of an item, including its "type" tag.
func MediaToMap(item MediaItem) (map[string]any, error) {
	if u, ok := item.(UnknownMedia); ok {
		out := make(map[string]any, len(u.Raw))
		for k, v := range u.Raw {
			out[k] = v
		}
		return out, nil
	}

	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	out["type"] = string(item.Kind())
	return out, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
