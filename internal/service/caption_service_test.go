package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlueskyFacetsUseByteOffsets(t *testing.T) {
	tags := []string{"artdeco", "photogrammetry", "drone"}
	facets := BlueskyFacets("🙂\n\nartdeco photogrammetry drone", tags)

	require.Len(t, facets, 3)
	want := []transfer.BlueskyByteSlice{
		{ByteStart: 6, ByteEnd: 14},
		{ByteStart: 15, ByteEnd: 30},
		{ByteStart: 31, ByteEnd: 37},
	}
	for i, f := range facets {
		assert.Equal(t, want[i], f.Index)
		assert.Equal(t, len("#"+tags[i]), f.Index.ByteEnd-f.Index.ByteStart)
		require.Len(t, f.Features, 1)
		assert.Equal(t, transfer.BlueskyTagFeature, f.Features[0].Type)
		assert.Equal(t, tags[i], f.Features[0].Tag)
		if i > 0 {
			assert.Greater(t, f.Index.ByteStart, facets[i-1].Index.ByteEnd)
		}
	}
}

func TestBlueskyFacetsMatchRenderedHashtags(t *testing.T) {
	tags := []string{"kintsugi", "wabisabi"}
	text := FormatCaption(models.PlatformBluesky, models.Annotation{Kaomoji: "(◕‿◕)", Hashtags: tags})

	facets := BlueskyFacets(text, tags)
	require.Len(t, facets, 2)
	for i, f := range facets {
		assert.Equal(t, "#"+tags[i], text[f.Index.ByteStart:f.Index.ByteEnd])
	}
}

func TestBlueskyFacetsWithoutBoundary(t *testing.T) {
	assert.Nil(t, BlueskyFacets("#a #b", []string{"a", "b"}))
	assert.Nil(t, BlueskyFacets("x\n\n#a", nil))
}

func TestFormatCaptionInstagram(t *testing.T) {
	a := models.Annotation{Kaomoji: "(•‿•)", FunFact: "Fact.", Hashtags: []string{"a", "b", "c"}}
	assert.Equal(t, "(•‿•)\n\nFact.\n\n#a #b #c", FormatCaption(models.PlatformInstagram, a))
	assert.Equal(t, "(•‿•)\n\nFact.", FormatCaption(models.PlatformTumblr, a))
	assert.Equal(t, "", FormatCaption(models.PlatformInstagram, models.Annotation{}))
}

func TestFormatCaptionTiktokTruncates(t *testing.T) {
	a := models.Annotation{Kaomoji: "é", FunFact: strings.Repeat("é", 200), Hashtags: []string{"tag"}}
	caption := FormatCaption(models.PlatformTiktok, a)

	assert.Equal(t, 150, utf8.RuneCountInString(caption))
	assert.True(t, strings.HasSuffix(caption, "..."))
	assert.True(t, utf8.ValidString(caption))

	short := models.Annotation{Kaomoji: "k", FunFact: "f", Hashtags: []string{"t"}}
	assert.Equal(t, "k\n\nf #t", FormatCaption(models.PlatformTiktok, short))
}

func TestFormatCaptionBlueskyLadder(t *testing.T) {
	longFact := strings.Repeat("x", 400)
	tags := []string{"one", "two", "three"}

	t.Run("full text fits", func(t *testing.T) {
		a := models.Annotation{Kaomoji: "k", FunFact: "fact", Hashtags: tags}
		assert.Equal(t, "k\n\nfact\n\n#one #two #three", FormatCaption(models.PlatformBluesky, a))
	})

	t.Run("kaomoji and hashtags", func(t *testing.T) {
		a := models.Annotation{Kaomoji: "(=^･ω･^=)", FunFact: longFact, Hashtags: tags}
		assert.Equal(t, "(=^･ω･^=)\n\n#one #two #three", FormatCaption(models.PlatformBluesky, a))
	})

	t.Run("kaomoji alone", func(t *testing.T) {
		a := models.Annotation{Kaomoji: "k", FunFact: longFact, Hashtags: []string{strings.Repeat("t", 299)}}
		assert.Equal(t, "k", FormatCaption(models.PlatformBluesky, a))
	})

	t.Run("hashtags alone", func(t *testing.T) {
		a := models.Annotation{Kaomoji: strings.Repeat("k", 301), Hashtags: tags}
		assert.Equal(t, "#one #two #three", FormatCaption(models.PlatformBluesky, a))
	})

	t.Run("nothing fits", func(t *testing.T) {
		a := models.Annotation{Kaomoji: strings.Repeat("k", 301), Hashtags: []string{strings.Repeat("t", 300)}}
		assert.Equal(t, "", FormatCaption(models.PlatformBluesky, a))
	})

	t.Run("limit counts runes", func(t *testing.T) {
		a := models.Annotation{Kaomoji: strings.Repeat("ω", 300)}
		assert.Equal(t, strings.Repeat("ω", 300), FormatCaption(models.PlatformBluesky, a))
	})
}

func TestCaptionsForCoversEveryPlatform(t *testing.T) {
	captions := CaptionsFor(models.Annotation{Kaomoji: "k", FunFact: "f", Hashtags: []string{"a"}})
	for _, p := range models.Platforms {
		assert.Contains(t, captions, p)
	}
	assert.Equal(t, captions[models.PlatformInstagram], captions[models.PlatformThreads])
}

func TestResolveCaptionsPrefersFrozen(t *testing.T) {
	item := &models.ContentItem{
		Kaomoji:          "k",
		PlatformCaptions: map[models.Platform]string{models.PlatformInstagram: "frozen"},
	}
	assert.Equal(t, "frozen", ResolveCaptions(item)[models.PlatformInstagram])

	item.PlatformCaptions = nil
	assert.Equal(t, "k", ResolveCaptions(item)[models.PlatformInstagram])
}
