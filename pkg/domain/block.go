package domain

import "encoding/json"

// VideoProvider classifies where a video is hosted.
type VideoProvider string

const (
	ProviderYouTube VideoProvider = "youtube"
	ProviderVimeo   VideoProvider = "vimeo"
	ProviderFile    VideoProvider = "file"
)

// Block is a normalized, display-ready description of one MediaItem.
// Implementations: VideoBlock, LinkBlock, ImageBlock, AudioBlock, UnknownBlock.
type Block interface {
	BlockKind() MediaKind
	isBlock()
}

// VideoBlock is a classified video. VideoID is nil when the provider id could not be
// extracted (or for plain files); EmbedURL is then empty for hosted providers.
type VideoBlock struct {
	Provider    VideoProvider `json:"provider"`
	VideoID     *string       `json:"videoId"`
	URL         string        `json:"url"`
	EmbedURL    string        `json:"embedUrl,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Autoplay    bool          `json:"autoplay"`
	Width       string        `json:"width,omitempty"`
	Height      string        `json:"height,omitempty"`
}

// LinkBlock is a link preview card. DisplayDomain is the authored domain, or the host
// derived from URL, or the raw URL when it cannot be parsed.
type LinkBlock struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	Image         string `json:"image,omitempty"`
	Favicon       string `json:"favicon,omitempty"`
	Domain        string `json:"domain,omitempty"`
	DisplayDomain string `json:"displayDomain"`
}

// ImageBlock is an embedded image.
type ImageBlock struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Width       string `json:"width"`
	Height      string `json:"height"`
}

// AudioBlock is an embedded audio player.
type AudioBlock struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Autoplay    bool   `json:"autoplay"`
}

// UnknownBlock passes through an item whose type is not recognized.
type UnknownBlock struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

func (VideoBlock) BlockKind() MediaKind   { return MediaVideo }
func (LinkBlock) BlockKind() MediaKind    { return MediaLink }
func (ImageBlock) BlockKind() MediaKind   { return MediaImage }
func (AudioBlock) BlockKind() MediaKind   { return MediaAudio }
func (UnknownBlock) BlockKind() MediaKind { return MediaUnknown }

func (VideoBlock) isBlock()   {}
func (LinkBlock) isBlock()    {}
func (ImageBlock) isBlock()   {}
func (AudioBlock) isBlock()   {}
func (UnknownBlock) isBlock() {}

// DisplayModel is what the presentation layer shows for the current node.
type DisplayModel struct {
	NodeID         string   `json:"nodeId"`
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	MediaBlocks    []Block  `json:"mediaBlocks"`
	FollowUpLabels []string `json:"followUpLabels"`
	Terminal       bool     `json:"terminal"`
}

func (b VideoBlock) MarshalJSON() ([]byte, error) {
	type plain VideoBlock
	return marshalTagged(b.BlockKind(), plain(b))
}

func (b LinkBlock) MarshalJSON() ([]byte, error) {
	type plain LinkBlock
	return marshalTagged(b.BlockKind(), plain(b))
}

func (b ImageBlock) MarshalJSON() ([]byte, error) {
	type plain ImageBlock
	return marshalTagged(b.BlockKind(), plain(b))
}

func (b AudioBlock) MarshalJSON() ([]byte, error) {
	type plain AudioBlock
	return marshalTagged(b.BlockKind(), plain(b))
}

func (b UnknownBlock) MarshalJSON() ([]byte, error) {
	type plain UnknownBlock
	return marshalTagged(b.BlockKind(), plain(b))
}

// marshalTagged adds the "kind" discriminator to a block's JSON object.
func marshalTagged(kind MediaKind, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m["kind"] = string(kind)
	return json.Marshal(m)
}
