package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

const captionTimeout = 30 * time.Second

// CaptionSource scrapes platform-native captions from a video watch page.
// It is the fastest and cheapest rung of the chain, so it goes first; videos
// without captions simply fall through.
type CaptionSource struct {
	httpClient *http.Client
}

func NewCaptionSource() *CaptionSource {
	return &CaptionSource{
		httpClient: &http.Client{Timeout: captionTimeout},
	}
}

func (s *CaptionSource) Name() string { return "captions" }

func (s *CaptionSource) Timeout() time.Duration { return captionTimeout }

func (s *CaptionSource) Transcribe(ctx context.Context, ref, langHint string) (string, error) {
	videoID, ok := VideoID(ref)
	if !ok {
		return "", domain.Invalid("not a video watch URL")
	}

	page, err := s.fetch(ctx, "https://www.youtube.com/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return "", fmt.Errorf("fetch watch page: %w", err)
	}

	tracks, err := extractCaptionTracks(page)
	if err != nil {
		return "", err
	}

	track := pickTrack(tracks, langHint)
	if track == nil {
		return "", fmt.Errorf("no caption track for language %q", langHint)
	}

	captions, err := s.fetch(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("fetch caption track: %w", err)
	}

	return parseTimedText(captions)
}

// VideoID extracts a video ID from the watch URL forms the mobile clients
// send (youtu.be short links and youtube.com/watch?v=).
func VideoID(ref string) (string, bool) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	switch parsed.Hostname() {
	case "youtu.be":
		id := strings.TrimPrefix(parsed.Path, "/")
		return id, id != ""
	case "youtube.com", "www.youtube.com", "m.youtube.com":
		id := parsed.Query().Get("v")
		return id, id != ""
	}
	return "", false
}

func (s *CaptionSource) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	// Browser-like headers to avoid consent walls and blocks.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// extractCaptionTracks digs the caption track list out of the player config
// embedded in the watch page's script tags.
func extractCaptionTracks(page []byte) ([]captionTrack, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page)))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if strings.Contains(text, `"captionTracks":`) {
			raw = text
			return false
		}
		return true
	})
	if raw == "" {
		return nil, fmt.Errorf("no caption tracks on watch page")
	}

	start := strings.Index(raw, `"captionTracks":`)
	raw = raw[start+len(`"captionTracks":`):]
	arr, err := balancedArray(raw)
	if err != nil {
		return nil, err
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(arr), &tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("empty caption track list")
	}
	return tracks, nil
}

// balancedArray returns the leading JSON array of s, tracking bracket depth
// outside string literals.
func balancedArray(s string) (string, error) {
	if !strings.HasPrefix(s, "[") {
		return "", fmt.Errorf("caption track list is malformed")
	}

	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[:i+1], nil
			}
		}
	}
	return "", fmt.Errorf("caption track list is truncated")
}

// pickTrack prefers an exact language match, then a manually authored track,
// then whatever is first.
func pickTrack(tracks []captionTrack, langHint string) *captionTrack {
	if langHint != "" {
		for i := range tracks {
			if strings.EqualFold(tracks[i].LanguageCode, langHint) {
				return &tracks[i]
			}
		}
	}
	for i := range tracks {
		if tracks[i].Kind != "asr" {
			return &tracks[i]
		}
	}
	if len(tracks) > 0 {
		return &tracks[0]
	}
	return nil
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(data []byte) (string, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse caption xml: %w", err)
	}

	lines := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		line := strings.TrimSpace(html.UnescapeString(t.Value))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("caption track has no text")
	}
	return strings.Join(lines, " "), nil
}
