package subtitle

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Cue is one timed subtitle or lyric fragment. Times are in seconds.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

var (
	errNoTiming       = errors.New("block has no timing line")
	errBadTimestamp   = errors.New("malformed timestamp")
	blankLineSplitter = regexp.MustCompile(`\n[ \t]*\n`)
	markup            = regexp.MustCompile(`<[^>]*>`)
)

const arrow = "-->"

// Parse reads SRT-style text into cues ordered by start time. Blocks without a
// timing line or with unreadable timestamps are skipped.
func Parse(text string) []Cue {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.TrimSpace(text)
	if text == "" {
		return []Cue{}
	}

	cues := []Cue{}
	for _, block := range blankLineSplitter.Split(text, -1) {
		cue, err := parseBlock(block)
		if err != nil {
			continue
		}
		cues = append(cues, cue)
	}

	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].Start < cues[j].Start
	})

	return cues
}

func parseBlock(block string) (Cue, error) {
	lines := strings.Split(strings.TrimSpace(block), "\n")

	timing := -1
	for i, line := range lines {
		if strings.Contains(line, arrow) {
			timing = i
			break
		}
	}
	if timing < 0 {
		return Cue{}, errNoTiming
	}

	bounds := strings.SplitN(lines[timing], arrow, 2)
	start, err := ParseTimestamp(bounds[0])
	if err != nil {
		return Cue{}, err
	}
	// Cue settings may follow the end timestamp.
	endFields := strings.Fields(bounds[1])
	if len(endFields) == 0 {
		return Cue{}, errBadTimestamp
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return Cue{}, err
	}

	textLines := make([]string, 0, len(lines)-timing-1)
	for _, line := range lines[timing+1:] {
		if line = strings.TrimSpace(line); line != "" {
			textLines = append(textLines, line)
		}
	}
	text := markup.ReplaceAllString(strings.Join(textLines, " "), "")

	return Cue{Start: start, End: end, Text: strings.TrimSpace(text)}, nil
}

// ParseTimestamp reads HH:MM:SS.mmm or MM:SS.mmm; a comma decimal separator is
// accepted.
func ParseTimestamp(value string) (float64, error) {
	value = strings.Replace(strings.TrimSpace(value), ",", ".", 1)
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", errBadTimestamp, value)
	}

	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		var (
			n   float64
			err error
		)
		if last {
			n, err = strconv.ParseFloat(part, 64)
		} else {
			var whole int
			whole, err = strconv.Atoi(part)
			n = float64(whole)
		}
		if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %q", errBadTimestamp, value)
		}
		total = total*60 + n
	}

	return total, nil
}

// Active returns the index of the first cue in list order whose interval
// contains t, inclusive on both ends.
func Active(cues []Cue, t float64) (int, bool) {
	for i, cue := range cues {
		if t >= cue.Start && t <= cue.End {
			return i, true
		}
	}
	return -1, false
}

// maxClockSeconds bounds client-reported times before integer conversion.
const maxClockSeconds = 1e9

// FormatClock renders seconds as m:ss. Unknown or negative values render 0:00;
// values past maxClockSeconds are clamped.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	seconds = min(seconds, maxClockSeconds)
	total := int64(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
