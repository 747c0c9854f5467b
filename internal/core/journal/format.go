package journal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/neilberkman/daybook/internal/core/dates"
)

var sessionHeaderRe = regexp.MustCompile(`(?m)^## Session (\d+)\b(.*)$`)

// Day is a parsed journal file.
type Day struct {
	Date     dates.Key
	Path     string
	Header   string
	Sessions []Session
	Content  string
}

// Session is one block inside a Day, as it appears on disk.
type Session struct {
	Number int
	Time   string
	Topic  string
	Text   string
}

type sessionHeader struct {
	Number int
	Time   string
	Topic  string
	Start  int
	End    int
}

// CountSessions counts session headers in a day's content.
func CountSessions(content string) int {
	return len(sessionHeaderRe.FindAllStringIndex(content, -1))
}

func parseHeaders(content string) []sessionHeader {
	var out []sessionHeader
	for _, m := range sessionHeaderRe.FindAllStringSubmatchIndex(content, -1) {
		n, _ := strconv.Atoi(content[m[2]:m[3]])
		h := sessionHeader{Number: n, Start: m[0], End: m[1]}

		rest := strings.TrimSpace(content[m[4]:m[5]])
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
		if t, topic, ok := strings.Cut(rest, " - "); ok {
			h.Time = strings.TrimSpace(t)
			h.Topic = strings.TrimSpace(topic)
		} else {
			h.Topic = rest
		}
		out = append(out, h)
	}
	return out
}

// ParseDay splits content into its top header and session blocks.
func ParseDay(date dates.Key, content string) Day {
	day := Day{Date: date, Content: content}
	headers := parseHeaders(content)

	preamble := content
	if len(headers) > 0 {
		preamble = content[:headers[0].Start]
	}
	for _, line := range strings.Split(preamble, "\n") {
		if strings.HasPrefix(line, "# ") {
			day.Header = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			break
		}
	}

	for i, h := range headers {
		end := len(content)
		if i+1 < len(headers) {
			end = headers[i+1].Start
		}
		text := strings.TrimRight(content[h.Start:end], " \t\r\n")
		text = strings.TrimRight(strings.TrimSuffix(text, "---"), " \t\r\n")
		day.Sessions = append(day.Sessions, Session{
			Number: h.Number,
			Time:   h.Time,
			Topic:  h.Topic,
			Text:   text,
		})
	}
	return day
}
