package timeparser

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/date-detector/types"
)

// Format renders t with pattern. Directives that need a date component fail
// when the corresponding field of t is unset.
func Format(pattern string, t *types.ExtTime) (string, error) {
	format := []rune(pattern)
	var ret []rune
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			ret = append(ret, c)
			continue
		}
		info, _, formatProgress, err := lookupDirective(format[i:])
		if err != nil {
			return "", err
		}
		formatted, err := info.Format(t)
		if err != nil {
			return "", err
		}
		ret = append(ret, formatted...)
		i += formatProgress - 1
	}
	return string(ret), nil
}

func requireField(v int, name string) (int, error) {
	if v == types.Unset {
		return 0, fmt.Errorf("cannot format unset %s", name)
	}
	return v, nil
}

func dateOf(t *types.ExtTime) (time.Time, error) {
	if _, err := requireField(t.Year, "year"); err != nil {
		return time.Time{}, err
	}
	if _, err := requireField(t.Month, "month"); err != nil {
		return time.Time{}, err
	}
	if _, err := requireField(t.Day, "day"); err != nil {
		return time.Time{}, err
	}
	return t.Time(t.Zone()), nil
}

func weekOfDayFormatter(t *types.ExtTime) ([]rune, error) {
	date, err := dateOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(dayOfWeeks[int(date.Weekday())]), nil
}

func shortWeekOfDayFormatter(t *types.ExtTime) ([]rune, error) {
	const shortLen = 3
	day, err := weekOfDayFormatter(t)
	if err != nil {
		return nil, err
	}
	return day[:shortLen], nil
}

func monthFormatter(t *types.ExtTime) ([]rune, error) {
	month, err := requireField(t.Month, "month")
	if err != nil {
		return nil, err
	}
	if month < 0 || month >= len(months) {
		return nil, fmt.Errorf("invalid month index %d", month)
	}
	return []rune(months[month]), nil
}

func shortMonthFormatter(t *types.ExtTime) ([]rune, error) {
	const shortLen = 3
	month, err := monthFormatter(t)
	if err != nil {
		return nil, err
	}
	return month[:shortLen], nil
}

func yearOf(t *types.ExtTime) (int, error) {
	year, err := requireField(t.Year, "year")
	if err != nil {
		return 0, err
	}
	return year + 1900, nil
}

func centuryFormatter(t *types.ExtTime) ([]rune, error) {
	year, err := yearOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(fmt.Sprintf("%02d", year/100)), nil
}

func yearWithoutCenturyFormatter(t *types.ExtTime) ([]rune, error) {
	year, err := yearOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(fmt.Sprintf("%02d", year%100)), nil
}

func yearFormatter(t *types.ExtTime) ([]rune, error) {
	year, err := yearOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(fmt.Sprint(year)), nil
}

func timeYear4Formatter(t *types.ExtTime) ([]rune, error) {
	year, err := yearOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(fmt.Sprintf("%04d", year)), nil
}

func ansicFormatter(t *types.ExtTime) ([]rune, error) {
	date, err := dateOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(date.Format("Mon Jan _2 15:04:05 2006")), nil
}

func monthDayYearFormatter(t *types.ExtTime) ([]rune, error) {
	date, err := dateOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(date.Format("01/02/06")), nil
}

func dayFormatter(t *types.ExtTime) ([]rune, error) {
	day, err := requireField(t.Day, "day")
	if err != nil {
		return nil, err
	}
	return []rune(fmt.Sprintf("%02d", day)), nil
}

func daySpacePrecedingSingleDigitFormatter(t *types.ExtTime) ([]rune, error) {
	day, err := requireField(t.Day, "day")
	if err != nil {
		return nil, err
	}
	return []rune(fmt.Sprintf("%2d", day)), nil
}

func yearMonthDayFormatter(t *types.ExtTime) ([]rune, error) {
	date, err := dateOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(date.Format("2006-01-02")), nil
}

func millisecondFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune(fmt.Sprintf("%03d", t.Millisecond)), nil
}

func hourFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune(fmt.Sprintf("%02d", t.Hour)), nil
}

func hour24SpacePrecedingSingleDigitFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune(fmt.Sprintf("%2d", t.Hour)), nil
}

func hour12(t *types.ExtTime) int {
	h := t.Hour % 12
	if h == 0 {
		return 12
	}
	return h
}

func hour12Formatter(t *types.ExtTime) ([]rune, error) {
	return []rune(fmt.Sprintf("%02d", hour12(t))), nil
}

func hour12SpacePrecedingSingleDigitFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune(fmt.Sprintf("%2d", hour12(t))), nil
}

func dayOfYearFormatter(t *types.ExtTime) ([]rune, error) {
	date, err := dateOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(fmt.Sprintf("%03d", date.YearDay())), nil
}

func minuteFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune(fmt.Sprintf("%02d", t.Minute)), nil
}

func monthNumberFormatter(t *types.ExtTime) ([]rune, error) {
	month, err := requireField(t.Month, "month")
	if err != nil {
		return nil, err
	}
	return []rune(fmt.Sprintf("%02d", month+1)), nil
}

func newLineFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune("\n"), nil
}

func tabFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune("\t"), nil
}

func largeAMPMFormatter(t *types.ExtTime) ([]rune, error) {
	if t.Hour < 12 {
		return []rune("AM"), nil
	}
	return []rune("PM"), nil
}

func hourMinuteFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune(fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)), nil
}

func secondFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune(fmt.Sprintf("%02d", t.Second)), nil
}

func unixtimeSecondsFormatter(t *types.ExtTime) ([]rune, error) {
	date, err := dateOf(t)
	if err != nil {
		return nil, err
	}
	return []rune(fmt.Sprint(date.Unix())), nil
}

func hourMinuteSecondFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune(fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)), nil
}

func escapeFormatter(t *types.ExtTime) ([]rune, error) {
	return []rune("%"), nil
}

func timePrecisionFormatter(precision int, t *types.ExtTime) ([]rune, error) {
	fraction := fmt.Sprintf("%03d", t.Millisecond)
	if precision < len(fraction) {
		fraction = fraction[:precision]
	} else {
		fraction += strings.Repeat("0", precision-len(fraction))
	}
	return []rune(fmt.Sprintf("%02d.%s", t.Second, fraction)), nil
}
