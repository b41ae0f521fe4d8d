package utils

import (
	"bufio"
	"fmt"
	"strings"
	"time"
)

// Minimal iCalendar support for channel calendars. Channel feeds carry
// day-granular VEVENT blocks only, so a small codec is enough; anything the
// parser does not understand is skipped rather than failing the whole feed.

// CalendarEvent is one busy period from a channel calendar. UID is the
// channel's stable event identifier; repeated syncs with the same UID update
// the same hold.
type CalendarEvent struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

// ParseCalendar extracts VEVENT blocks from iCalendar data. Dates are
// normalized to calendar-date granularity; events without a UID or a valid
// date range are dropped.
func ParseCalendar(data string) ([]CalendarEvent, error) {
	lines, err := unfoldLines(data)
	if err != nil {
		return nil, err
	}

	var events []CalendarEvent
	var cur *CalendarEvent
	for _, line := range lines {
		switch {
		case line == "BEGIN:VEVENT":
			cur = &CalendarEvent{}
		case line == "END:VEVENT":
			if cur != nil && cur.UID != "" && cur.Start.Before(cur.End) {
				events = append(events, *cur)
			}
			cur = nil
		case cur == nil:
			// outside an event
		default:
			name, value, ok := splitContentLine(line)
			if !ok {
				continue
			}
			switch name {
			case "UID":
				cur.UID = value
			case "SUMMARY":
				cur.Summary = value
			case "DTSTART":
				if t, err := parseICalDate(value); err == nil {
					cur.Start = t
				}
			case "DTEND":
				if t, err := parseICalDate(value); err == nil {
					cur.End = t
				}
			}
		}
	}
	return events, nil
}

// BuildCalendar serializes events as an iCalendar feed with DATE-valued
// start/end, suitable for channel pull feeds.
func BuildCalendar(name string, events []CalendarEvent) string {
	var sb strings.Builder
	sb.WriteString("BEGIN:VCALENDAR\r\n")
	sb.WriteString("VERSION:2.0\r\n")
	sb.WriteString("PRODID:-//pms-backend//channel-sync//EN\r\n")
	if name != "" {
		sb.WriteString("X-WR-CALNAME:" + escapeText(name) + "\r\n")
	}
	for _, ev := range events {
		sb.WriteString("BEGIN:VEVENT\r\n")
		sb.WriteString("UID:" + ev.UID + "\r\n")
		sb.WriteString("DTSTART;VALUE=DATE:" + NormalizeDate(ev.Start).Format("20060102") + "\r\n")
		sb.WriteString("DTEND;VALUE=DATE:" + NormalizeDate(ev.End).Format("20060102") + "\r\n")
		if ev.Summary != "" {
			sb.WriteString("SUMMARY:" + escapeText(ev.Summary) + "\r\n")
		}
		sb.WriteString("END:VEVENT\r\n")
	}
	sb.WriteString("END:VCALENDAR\r\n")
	return sb.String()
}

// unfoldLines joins folded continuation lines (RFC 5545 §3.1) and trims
// line endings.
func unfoldLines(data string) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	return lines, nil
}

// splitContentLine splits "NAME;PARAM=X:value" into the property name and
// value, discarding parameters.
func splitContentLine(line string) (name, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	name = line[:idx]
	value = line[idx+1:]
	if semi := strings.Index(name, ";"); semi >= 0 {
		name = name[:semi]
	}
	return strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(value), true
}

func parseICalDate(value string) (time.Time, error) {
	for _, layout := range []string{"20060102", "20060102T150405Z", "20060102T150405"} {
		if t, err := time.Parse(layout, value); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date value %q", value)
}

func escapeText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}
