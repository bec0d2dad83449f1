package service

import (
	"strings"
	"unicode/utf8"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
)

const (
	tiktokCaptionLimit  = 150
	blueskyCaptionLimit = 300
	ellipsis            = "..."
	hashtagBoundary     = "\n\n"
)

// HashtagText renders tags as "#a #b #c".
func HashtagText(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = "#" + tag
	}
	return strings.Join(parts, " ")
}

func mainText(a models.Annotation) string {
	var parts []string
	if a.Kaomoji != "" {
		parts = append(parts, a.Kaomoji)
	}
	if a.FunFact != "" {
		parts = append(parts, a.FunFact)
	}
	return strings.Join(parts, "\n\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// FormatCaption renders the caption for one platform from an annotation.
func FormatCaption(platform models.Platform, a models.Annotation) string {
	if a.Kaomoji == "" && a.FunFact == "" && len(a.Hashtags) == 0 {
		return ""
	}
	main := mainText(a)
	tags := HashtagText(a.Hashtags)

	switch platform {
	case models.PlatformInstagram, models.PlatformThreads:
		return joinNonEmpty("\n\n", main, tags)
	case models.PlatformTiktok:
		return truncateRunes(joinNonEmpty(" ", main, tags), tiktokCaptionLimit)
	case models.PlatformTumblr:
		return main
	case models.PlatformBluesky:
		return blueskyCaption(main, a.Kaomoji, tags)
	default:
		return joinNonEmpty(" ", main, tags)
	}
}

func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// blueskyCaption walks the fallback ladder until a candidate fits.
func blueskyCaption(main, kaomoji, tags string) string {
	full := joinNonEmpty("\n\n", main, tags)
	if fits(full) {
		return full
	}
	if kaomoji != "" && tags != "" {
		if candidate := kaomoji + "\n\n" + tags; fits(candidate) {
			return candidate
		}
	}
	if kaomoji != "" && fits(kaomoji) {
		return kaomoji
	}
	if tags != "" && fits(tags) {
		return tags
	}
	return ""
}

func fits(text string) bool {
	return utf8.RuneCountInString(text) <= blueskyCaptionLimit
}

// BlueskyFacets tags each hashtag laid out after the first blank line of
// text. Offsets are UTF-8 byte positions.
func BlueskyFacets(text string, tags []string) []transfer.BlueskyFacet {
	if len(tags) == 0 {
		return nil
	}
	boundary := strings.Index(text, hashtagBoundary)
	if boundary < 0 {
		return nil
	}

	offset := boundary + len(hashtagBoundary)
	facets := make([]transfer.BlueskyFacet, 0, len(tags))
	for _, tag := range tags {
		end := offset + len("#"+tag)
		facets = append(facets, transfer.BlueskyFacet{
			Index: transfer.BlueskyByteSlice{ByteStart: offset, ByteEnd: end},
			Features: []transfer.BlueskyFacetFeature{{
				Type: transfer.BlueskyTagFeature,
				Tag:  tag,
			}},
		})
		offset = end + 1
	}
	return facets
}

// CaptionsFor renders the caption of every platform for an annotation.
func CaptionsFor(a models.Annotation) map[models.Platform]string {
	captions := make(map[models.Platform]string, len(models.Platforms))
	for _, p := range models.Platforms {
		captions[p] = FormatCaption(p, a)
	}
	return captions
}

// AnnotationOf reads the frozen annotation fields of an item.
func AnnotationOf(item *models.ContentItem) models.Annotation {
	return models.Annotation{
		Kaomoji:         item.Kaomoji,
		FunFact:         item.FunFact,
		FunFactFollowup: item.FunFactFollowup,
		Hashtags:        item.Hashtags,
	}
}
