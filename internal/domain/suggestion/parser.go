package suggestion

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/relai/server/internal/model"
)

// DefaultDuration is used when a Duration line carries no digits.
const DefaultDuration = 30

// Parse reads the labelled line format the model is asked to produce.
// A Title line opens a record; other labels fill the open record; lines
// without a known label are ignored.
func Parse(text string) []*model.Suggestion {
	var (
		out     []*model.Suggestion
		current *model.Suggestion
	)

	for _, raw := range strings.Split(text, "\n") {
		label, value, ok := splitLabel(raw)
		if !ok {
			continue
		}

		if label == "title" {
			if current != nil {
				out = append(out, current)
			}
			current = &model.Suggestion{Title: value, Duration: DefaultDuration}
			continue
		}
		if current == nil {
			continue
		}

		switch label {
		case "description":
			current.Description = value
		case "duration":
			current.Duration = parseDuration(value)
		case "platforms":
			current.Platforms = splitList(value, ",")
		case "hashtags":
			current.Hashtags = splitHashtags(value)
		case "hook":
			current.Hook = value
		}
	}

	if current != nil {
		out = append(out, current)
	}
	return out
}

// splitLabel splits "Label: value", tolerating list markers and bold text
// around the label.
func splitLabel(line string) (label, value string, ok bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*#0123456789. ")
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	label = strings.ToLower(strings.Trim(line[:idx], "* "))
	value = strings.TrimSpace(strings.Trim(line[idx+1:], "* "))
	switch label {
	case "title", "description", "duration", "platforms", "hashtags", "hook":
		return label, value, true
	}
	return "", "", false
}

// parseDuration keeps only the digits of value.
func parseDuration(value string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, value)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return DefaultDuration
	}
	return n
}

func splitList(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitHashtags accepts comma or whitespace separated tags.
func splitHashtags(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
