package formula

import (
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"

	// secondsPerDay divides Unix seconds of UTC midnights into whole days.
	// time.Duration saturates after about 292 years, so spans avoid it.
	secondsPerDay = 24 * 60 * 60
)

func (e *Evaluator) date(fn Func, args []Node, g Grid) (string, bool) {
	switch fn {
	case FnToday:
		if len(args) != 0 {
			return "", false
		}
		return e.clock.Now().Format(dateLayout), true

	case FnNow:
		if len(args) != 0 {
			return "", false
		}
		return e.clock.Now().Format(dateTimeLayout), true

	case FnDate:
		if len(args) != 3 {
			return "", false
		}
		var parts [3]int
		for i, arg := range args {
			v, err := strconv.Atoi(strings.TrimSpace(e.scalar(arg, g)))
			if err != nil {
				return "", false
			}
			parts[i] = v
		}
		d, ok := calendarDate(parts[0], parts[1], parts[2])
		if !ok {
			return "", false
		}
		return d.Format(dateLayout), true

	case FnYear, FnMonth, FnDay:
		if len(args) != 1 {
			return "", false
		}
		d, ok := ParseDate(e.scalar(args[0], g))
		if !ok {
			return "", false
		}
		switch fn {
		case FnYear:
			return strconv.Itoa(d.Year()), true
		case FnMonth:
			return strconv.Itoa(int(d.Month())), true
		}
		return strconv.Itoa(d.Day()), true

	case FnDateDif:
		if len(args) != 3 {
			return "", false
		}
		start, ok := ParseDate(e.scalar(args[0], g))
		if !ok {
			return "", false
		}
		end, ok := ParseDate(e.scalar(args[1], g))
		if !ok {
			return "", false
		}
		switch strings.ToUpper(strings.TrimSpace(e.scalar(args[2], g))) {
		case "D":
			return strconv.FormatInt((end.Unix()-start.Unix())/secondsPerDay, 10), true
		case "M":
			months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
			return strconv.Itoa(months), true
		case "Y":
			return strconv.Itoa(end.Year() - start.Year()), true
		}
		return ErrValue, true
	}
	return "", false
}

// ParseDate parses an ISO YYYY-MM-DD date. Month and day may omit the
// leading zero.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, "2006-1-2"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// calendarDate rejects dates that time.Date would normalize, such as Feb 30.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || year < 0 || year > 9999 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
