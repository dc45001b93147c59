package media

import (
	"net/url"

	"github.com/aretw0/emergence/pkg/domain"
)

// Defaults applied when an item leaves a field unset.
const (
	DefaultVideoTitle  = "Video"
	DefaultVideoWidth  = "100%"
	DefaultVideoHeight = "315"
	DefaultImageWidth  = "100%"
	DefaultImageHeight = "auto"
)

// Render converts media items into blocks, one per item, preserving order.
func Render(items []domain.MediaItem) []domain.Block {
	blocks := make([]domain.Block, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, RenderItem(item))
	}
	return blocks
}

// RenderItem converts a single item. Unrecognized items become an UnknownBlock.
func RenderItem(item domain.MediaItem) domain.Block {
	switch v := item.(type) {
	case domain.Video:
		return renderVideo(v)
	case domain.Link:
		return renderLink(v)
	case domain.Image:
		return domain.ImageBlock{
			URL:         v.URL,
			Title:       v.Title,
			Description: v.Description,
			Width:       orDefault(v.Width, DefaultImageWidth),
			Height:      orDefault(v.Height, DefaultImageHeight),
		}
	case domain.Audio:
		return domain.AudioBlock{
			URL:         v.URL,
			Title:       v.Title,
			Description: v.Description,
			Autoplay:    v.Autoplay,
		}
	case domain.UnknownMedia:
		return domain.UnknownBlock{Type: v.Type, URL: v.URL}
	case nil:
		return domain.UnknownBlock{}
	default:
		return domain.UnknownBlock{Type: string(item.Kind()), URL: item.Source()}
	}
}

func renderVideo(v domain.Video) domain.Block {
	block := domain.VideoBlock{
		Provider:    ClassifyVideo(v.URL),
		URL:         v.URL,
		Title:       orDefault(v.Title, DefaultVideoTitle),
		Description: v.Description,
		Autoplay:    v.Autoplay,
		Width:       orDefault(v.Width, DefaultVideoWidth),
		Height:      orDefault(v.Height, DefaultVideoHeight),
	}

	var (
		id string
		ok bool
	)
	switch block.Provider {
	case domain.ProviderYouTube:
		id, ok = YouTubeID(v.URL)
	case domain.ProviderVimeo:
		id, ok = VimeoID(v.URL)
	}
	if ok {
		block.VideoID = &id
		block.EmbedURL = embedURL(block.Provider, id, v.Autoplay)
	}
	return block
}

func renderLink(v domain.Link) domain.Block {
	display := v.Domain
	if display == "" {
		display = HostOf(v.URL)
	}
	return domain.LinkBlock{
		URL:           v.URL,
		Title:         v.Title,
		Description:   v.Description,
		Image:         v.Image,
		Favicon:       v.Favicon,
		Domain:        v.Domain,
		DisplayDomain: display,
	}
}

// HostOf returns the host component of raw, or raw itself when it has none.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Hostname()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
