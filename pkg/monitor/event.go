package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/goblink/pkg/blink"
)

// ErrNotLog is returned for console lines that are not firmware log records,
// such as ROM bootloader output.
var ErrNotLog = errors.New("not a log record")

// Line is a raw console line, stamped by the host on receipt.
type Line struct {
	Timestamp time.Time
	Text      string
}

// Kind classifies a console event.
type Kind int

const (
	KindOther Kind = iota
	KindBoot
	KindConfigured
	KindLEDOn
	KindLEDOff
	KindFault
)

func (k Kind) String() string {
	switch k {
	case KindBoot:
		return "boot"
	case KindConfigured:
		return "configured"
	case KindLEDOn:
		return "on"
	case KindLEDOff:
		return "off"
	case KindFault:
		return "fault"
	}
	return "other"
}

// IsTransition reports whether the event is an LED state change.
func (k Kind) IsTransition() bool {
	return k == KindLEDOn || k == KindLEDOff
}

// Event is a parsed firmware log record.
type Event struct {
	Timestamp time.Time
	Kind      Kind
	Level     string
	Msg       string
	Attrs     map[string]string
	Raw       string
}

// Cycle returns the cycle attribute of a transition event.
func (e Event) Cycle() (uint32, bool) {
	v, ok := e.Attrs["cycle"]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// ParseLine parses a slog text record, e.g.
//
//	level=INFO msg="LED ON" led=GPIO8 cycle=3
func ParseLine(line Line) (Event, error) {
	text := strings.TrimSpace(line.Text)
	attrs, err := parseLogfmt(text)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrNotLog, err)
	}

	msg, ok := attrs["msg"]
	if !ok {
		return Event{}, fmt.Errorf("%w: missing msg", ErrNotLog)
	}
	level := attrs["level"]
	delete(attrs, "msg")
	delete(attrs, "level")

	return Event{
		Timestamp: line.Timestamp,
		Kind:      classify(level, msg),
		Level:     level,
		Msg:       msg,
		Attrs:     attrs,
		Raw:       text,
	}, nil
}

func classify(level, msg string) Kind {
	if level == "ERROR" {
		return KindFault
	}
	switch msg {
	case blink.MsgBoot:
		return KindBoot
	case blink.MsgConfigured:
		return KindConfigured
	case blink.MsgOn:
		return KindLEDOn
	case blink.MsgOff:
		return KindLEDOff
	case blink.MsgFatal:
		return KindFault
	}
	return KindOther
}

// parseLogfmt splits key=value pairs. Quoted values use Go string syntax,
// which is what slog's text handler emits.
func parseLogfmt(s string) (map[string]string, error) {
	attrs := make(map[string]string)

	for i := 0; i < len(s); {
		if s[i] == ' ' {
			i++
			continue
		}

		eq := strings.IndexByte(s[i:], '=')
		if eq <= 0 {
			return nil, fmt.Errorf("expected key=value at offset %d", i)
		}
		key := s[i : i+eq]
		if strings.ContainsAny(key, " \"") {
			return nil, fmt.Errorf("invalid key %q", key)
		}
		i += eq + 1

		if i < len(s) && s[i] == '"' {
			end := closingQuote(s, i)
			if end < 0 {
				return nil, fmt.Errorf("unterminated quote for %q", key)
			}
			v, err := strconv.Unquote(s[i : end+1])
			if err != nil {
				return nil, fmt.Errorf("invalid quoted value for %q: %w", key, err)
			}
			attrs[key] = v
			i = end + 1
			continue
		}

		end := strings.IndexByte(s[i:], ' ')
		if end < 0 {
			end = len(s) - i
		}
		attrs[key] = s[i : i+end]
		i += end
	}

	if len(attrs) == 0 {
		return nil, fmt.Errorf("empty line")
	}
	return attrs, nil
}

func closingQuote(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
