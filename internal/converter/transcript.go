package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jfarrand/coursechunk/internal/chunker"
	"github.com/jfarrand/coursechunk/internal/cverr"
	"github.com/jfarrand/coursechunk/internal/doctree"
	"github.com/jfarrand/coursechunk/internal/page"
)

// TranscriptSegment is one timestamped utterance from the external
// speech-to-text tool. Chapter is optional; consecutive segments with a
// new chapter title start a new section.
type TranscriptSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Chapter string  `json:"chapter,omitempty"`
}

// TranscriptConverter consumes the timestamped JSON segments a
// speech-to-text tool produced. Each segment plays the page role:
// segment ordinals populate the page/line map and, when the descriptor
// URL is set, the per-page URL table carries timestamped deep links so
// a chunk resolves back to its moment in the recording.
type TranscriptConverter struct{}

func (c *TranscriptConverter) Convert(ctx context.Context, in Input) ([]doctree.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var segments []TranscriptSegment
	if err := json.Unmarshal(in.Data, &segments); err != nil {
		return nil, cverr.New(cverr.KindExternalTool, "decode transcript segments: %v", err)
	}
	if len(segments) == 0 {
		return nil, cverr.New(cverr.KindExternalTool, "transcript has no segments")
	}

	meta := in.Meta
	meta.PageLineMap = nil
	if meta.URL != "" {
		meta.PageURLs = make(map[int]string, len(segments))
	}

	var lines []string
	chapter := ""
	for i, seg := range segments {
		if seg.Chapter != "" && seg.Chapter != chapter {
			chapter = seg.Chapter
			lines = append(lines, "# "+chapter)
		}
		lineNum := len(lines) + 1
		lines = append(lines, strings.TrimSpace(seg.Text))

		ordinal := i + 1
		meta.PageLineMap = append(meta.PageLineMap, page.PageBreak{Line: lineNum, Page: ordinal})
		if meta.URL != "" {
			meta.PageURLs[ordinal] = timestampURL(meta.URL, seg.Start)
		}
	}

	pg := page.Build(stem(in.Name), strings.Join(lines, "\n")+"\n", "transcript", meta)
	return chunker.Assemble(pg)
}

// timestampURL appends a start-time fragment to the recording URL.
func timestampURL(url string, start float64) string {
	return fmt.Sprintf("%s&t=%s", url, strconv.FormatFloat(start, 'f', -1, 64))
}
