package services

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"
)

var (
	timingLineRegex = regexp.MustCompile(`-->`)
	cueNumberRegex  = regexp.MustCompile(`^\d+$`)
	markupTagRegex  = regexp.MustCompile(`<[^>]+>`)
)

// YouTubeCaptionSource fetches caption tracks through the YouTube Data API.
type YouTubeCaptionSource struct {
	service *youtube.Service
}

func NewYouTubeCaptionSource(ctx context.Context, apiKey string) (*YouTubeCaptionSource, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &YouTubeCaptionSource{service: service}, nil
}

// Fetch lists the video's caption tracks, picks the best language match and
// downloads it as SRT, returning the plain transcript text.
func (ys *YouTubeCaptionSource) Fetch(ctx context.Context, videoID, language string) (string, error) {
	resp, err := ys.service.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("caption list for video %s: %w", videoID, err)
	}

	trackID := pickCaptionTrack(resp.Items, language)
	if trackID == "" {
		return "", ErrNotAvailable
	}

	dl, err := ys.service.Captions.Download(trackID).Tfmt("srt").Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("caption download %s: %w", trackID, err)
	}
	defer dl.Body.Close()

	raw, err := io.ReadAll(dl.Body)
	if err != nil {
		return "", fmt.Errorf("caption read %s: %w", trackID, err)
	}

	text := ParseSubtitleText(string(raw))
	if text == "" {
		return "", ErrNotAvailable
	}
	return text, nil
}

// pickCaptionTrack prefers an exact language match, then any track whose
// language tag begins with the target prefix ("en" matches "en-US").
func pickCaptionTrack(tracks []*youtube.Caption, language string) string {
	for _, t := range tracks {
		if t.Snippet != nil && t.Snippet.Language == language {
			return t.Id
		}
	}
	for _, t := range tracks {
		if t.Snippet != nil && strings.HasPrefix(t.Snippet.Language, language) {
			return t.Id
		}
	}
	return ""
}

// ParseSubtitleText strips cue numbers, timing lines and markup from an
// SRT/VTT payload and collapses the remaining lines into one
// whitespace-normalized string.
func ParseSubtitleText(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "WEBVTT" {
			continue
		}
		if cueNumberRegex.MatchString(line) || timingLineRegex.MatchString(line) {
			continue
		}
		line = markupTagRegex.ReplaceAllString(line, "")
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
