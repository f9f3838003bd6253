package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var deadlineParser = newDeadlineParser()

func newDeadlineParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseDeadline parses s relative to base.
//
// RFC3339 and 2006-01-02 are tried first; anything else goes through the
// natural language parser ("tomorrow", "next friday at 5pm", "in 2 weeks").
// The result is in UTC.
func ParseDeadline(s string, base time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("deadline is empty")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, base.Location()); err == nil {
		return t.UTC(), nil
	}

	r, err := deadlineParser.Parse(s, base)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse deadline %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized deadline %q", s)
	}
	return r.Time.UTC(), nil
}
