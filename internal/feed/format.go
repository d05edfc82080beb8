package feed

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/pulse/internal/config"
)

// Formatter turns a frame into chat text. ok is false when the frame
// should not be relayed.
type Formatter func(data []byte) (text string, ok bool, err error)

// FormatterFor returns the formatter for a configured feed kind.
func FormatterFor(kind string) (Formatter, error) {
	switch kind {
	case config.FeedRaw:
		return Raw, nil
	case config.FeedDeepSmoke:
		return DeepSmoke, nil
	default:
		return nil, fmt.Errorf("unknown feed kind %q", kind)
	}
}

// Raw relays every frame verbatim.
func Raw(data []byte) (string, bool, error) {
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

// DeepSmokePrefix starts every DeepSmoke report.
const DeepSmokePrefix = "[ [DeepSmoke](https://git.io/vdlxx) | [PM](https://git.io/vdlx5) ] "

// deepSmokeIgnoredSites are not reported; the classifier is English-only.
var deepSmokeIgnoredSites = []string{
	"ru.stackoverflow.com",
	"ja.stackoverflow.com",
	"rus.stackexchange.com",
}

type deepSmokeEvent struct {
	DeepSmoke  []json.RawMessage `json:"deepsmoke"`
	Site       string            `json:"site"`
	Title      string            `json:"title"`
	QuestionID json.Number       `json:"question_id"`
}

type deepSmokeVerdict struct {
	Score json.Number `json:"score"`
}

// DeepSmoke reports posts the DeepSmoke classifier flagged as spam.
func DeepSmoke(data []byte) (string, bool, error) {
	var event deepSmokeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return "", false, fmt.Errorf("decoding deepsmoke event: %w", err)
	}
	if len(event.DeepSmoke) != 2 {
		return "", false, fmt.Errorf("decoding deepsmoke event: want [flag, verdict], got %d elements", len(event.DeepSmoke))
	}

	var flagged bool
	if err := json.Unmarshal(event.DeepSmoke[0], &flagged); err != nil {
		return "", false, fmt.Errorf("decoding deepsmoke flag: %w", err)
	}
	var verdict deepSmokeVerdict
	if err := json.Unmarshal(event.DeepSmoke[1], &verdict); err != nil {
		return "", false, fmt.Errorf("decoding deepsmoke verdict: %w", err)
	}

	if !flagged || slices.Contains(deepSmokeIgnoredSites, event.Site) {
		return "", false, nil
	}

	link := fmt.Sprintf("https://%s/q/%s", event.Site, event.QuestionID)
	return fmt.Sprintf("%sPotential spam because of deepsmoke analysis: [%s](%s) on `%s` with score `%s`",
		DeepSmokePrefix, event.Title, link, event.Site, verdict.Score), true, nil
}
