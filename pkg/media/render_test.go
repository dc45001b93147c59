package media

import (
	"testing"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYouTubeID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/u/w/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=abc123", "", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQxyz", "", false},
		{"https://www.youtube.com/", "", false},
	}

	for _, tt := range tests {
		got, ok := YouTubeID(tt.url)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("YouTubeID(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestVimeoID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://vimeo.com/76979871", "76979871", true},
		{"https://vimeo.com/channels/staffpicks/76979871", "76979871", true},
		{"https://vimeo.com/groups/shortfilms/videos/76979871", "76979871", true},
		{"https://vimeo.com/staff/picks/76979871", "76979871", true},
		{"https://player.vimeo.com/video/76979871", "76979871", true},
		{"https://vimeo.com/about", "", false},
	}

	for _, tt := range tests {
		got, ok := VimeoID(tt.url)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("VimeoID(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRender_Video(t *testing.T) {
	t.Run("youtube with defaults", func(t *testing.T) {
		block := RenderItem(domain.Video{URL: "https://youtu.be/dQw4w9WgXcQ"})
		v, ok := block.(domain.VideoBlock)
		require.True(t, ok)
		assert.Equal(t, domain.ProviderYouTube, v.Provider)
		require.NotNil(t, v.VideoID)
		assert.Equal(t, "dQw4w9WgXcQ", *v.VideoID)
		assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0", v.EmbedURL)
		assert.Equal(t, "Video", v.Title)
		assert.Equal(t, "", v.Description)
		assert.False(t, v.Autoplay)
	})

	t.Run("youtube short id", func(t *testing.T) {
		v := RenderItem(domain.Video{URL: "https://www.youtube.com/watch?v=short"}).(domain.VideoBlock)
		assert.Equal(t, domain.ProviderYouTube, v.Provider)
		assert.Nil(t, v.VideoID)
		assert.Empty(t, v.EmbedURL)
	})

	t.Run("vimeo autoplay", func(t *testing.T) {
		v := RenderItem(domain.Video{URL: "https://vimeo.com/123456", Title: "Talk", Autoplay: true}).(domain.VideoBlock)
		assert.Equal(t, domain.ProviderVimeo, v.Provider)
		require.NotNil(t, v.VideoID)
		assert.Equal(t, "123456", *v.VideoID)
		assert.Equal(t, "https://player.vimeo.com/video/123456?color=60a5fa&autoplay=1", v.EmbedURL)
		assert.Equal(t, "Talk", v.Title)
	})

	t.Run("generic file", func(t *testing.T) {
		v := RenderItem(domain.Video{URL: "https://cdn.example.com/clip.mp4"}).(domain.VideoBlock)
		assert.Equal(t, domain.ProviderFile, v.Provider)
		assert.Nil(t, v.VideoID)
		assert.Equal(t, "100%", v.Width)
		assert.Equal(t, "315", v.Height)
	})
}

func TestRender_Link(t *testing.T) {
	tests := []struct {
		name string
		item domain.Link
		want string
	}{
		{"explicit domain", domain.Link{URL: "https://example.com/a", Domain: "custom.org"}, "custom.org"},
		{"derived host", domain.Link{URL: "https://www.example.com:8443/a?b=c"}, "www.example.com"},
		{"unparseable", domain.Link{URL: "http://[::1"}, "http://[::1"},
		{"no host", domain.Link{URL: "just-text"}, "just-text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := RenderItem(tt.item).(domain.LinkBlock)
			assert.Equal(t, tt.want, block.DisplayDomain)
			assert.Equal(t, tt.item.Domain, block.Domain, "authored domain is passed through unchanged")
		})
	}
}

func TestRender_ImageAndAudio(t *testing.T) {
	img := RenderItem(domain.Image{URL: "i.png", Title: "Brain"}).(domain.ImageBlock)
	assert.Equal(t, domain.ImageBlock{URL: "i.png", Title: "Brain", Width: "100%", Height: "auto"}, img)

	img = RenderItem(domain.Image{URL: "i.png", Width: "50%", Height: "200px"}).(domain.ImageBlock)
	assert.Equal(t, "50%", img.Width)
	assert.Equal(t, "200px", img.Height)

	audio := RenderItem(domain.Audio{URL: "a.mp3", Description: "calm"}).(domain.AudioBlock)
	assert.Equal(t, domain.AudioBlock{URL: "a.mp3", Description: "calm"}, audio)
}

func TestRender_UnknownIsNotDropped(t *testing.T) {
	items := []domain.MediaItem{
		domain.Image{URL: "first.png"},
		domain.ParseMediaItem(map[string]any{"type": "gif", "url": "https://example.com/x.gif"}),
		domain.Audio{URL: "last.mp3"},
	}

	blocks := Render(items)
	require.Len(t, blocks, 3)
	assert.Equal(t, domain.MediaImage, blocks[0].BlockKind())
	assert.Equal(t, domain.UnknownBlock{Type: "gif", URL: "https://example.com/x.gif"}, blocks[1])
	assert.Equal(t, domain.MediaAudio, blocks[2].BlockKind())
}

func TestRender_IsDeterministic(t *testing.T) {
	items := []domain.MediaItem{
		domain.Video{URL: "https://youtu.be/dQw4w9WgXcQ"},
		domain.Link{URL: "https://example.com"},
		domain.Image{URL: "x.png"},
		domain.Audio{URL: "y.mp3", Autoplay: true},
		domain.UnknownMedia{Type: "3d"},
	}

	first := Render(items)
	second := Render(items)
	assert.Equal(t, first, second)
	require.Len(t, first, len(items))
	for i, item := range items {
		assert.Equal(t, item.Kind(), first[i].BlockKind(), "order preserved at %d", i)
	}

	assert.Empty(t, Render(nil))
}
