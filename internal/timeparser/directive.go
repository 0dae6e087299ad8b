package timeparser

import (
	"fmt"
	"strconv"

	"github.com/goccy/date-detector/types"
)

type DayOfWeek string

const (
	Sunday    DayOfWeek = "Sunday"
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
)

type Month string

const (
	January   Month = "January"
	February  Month = "February"
	March     Month = "March"
	April     Month = "April"
	May       Month = "May"
	June      Month = "June"
	July      Month = "July"
	August    Month = "August"
	September Month = "September"
	October   Month = "October"
	November  Month = "November"
	December  Month = "December"
)

var (
	dayOfWeeks = []DayOfWeek{
		Sunday,
		Monday,
		Tuesday,
		Wednesday,
		Thursday,
		Friday,
		Saturday,
	}
	months = []Month{
		January,
		February,
		March,
		April,
		May,
		June,
		July,
		August,
		September,
		October,
		November,
		December,
	}
)

// ParseFunction consumes a prefix of text, writes the fields it found into t and
// returns the number of runes consumed.
type ParseFunction func(text []rune, t *types.ExtTime) (int, error)

// FormatFunction renders the fields of t that the directive describes.
type FormatFunction func(t *types.ExtTime) ([]rune, error)

type FormatTimeInfo struct {
	Parse  ParseFunction
	Format FormatFunction
}

// TimeParserPostProcessor adjusts the parsed value once the whole pattern has matched.
// Some directives depend on others (%p on %I, %C on %y, %j on the year).
type TimeParserPostProcessor struct {
	ShouldPostProcessResult func(map[rune][2]int) bool
	PostProcessResult       func([]rune, map[rune][2]int, *types.ExtTime) error
}

var formatPatternMap = map[rune]*FormatTimeInfo{
	'A': {Parse: weekOfDayParser, Format: weekOfDayFormatter},
	'a': {Parse: weekOfDayParser, Format: shortWeekOfDayFormatter},
	'B': {Parse: monthParser, Format: monthFormatter},
	'b': {Parse: monthParser, Format: shortMonthFormatter},
	'h': {Parse: monthParser, Format: shortMonthFormatter},
	'C': {Parse: centuryParser, Format: centuryFormatter},
	'c': {
		Parse: composeParseFunctions("date and time representation", []ParseFunction{
			weekOfDayParser,
			spaceParser,
			monthParser,
			spaceParser,
			composeParseFunctions("day of month format", []ParseFunction{leadingSpaceAllowedParser, dayParser}),
			spaceParser,
			hourMinuteSecondParser,
			spaceParser,
			yearParser,
		}),
		Format: ansicFormatter,
	},
	'D': {Parse: monthDayYearParser, Format: monthDayYearFormatter},
	'x': {Parse: monthDayYearParser, Format: monthDayYearFormatter},
	'd': {Parse: dayParser, Format: dayFormatter},
	'e': {
		Parse:  composeParseFunctions("day of month format", []ParseFunction{leadingSpaceAllowedParser, dayParser}),
		Format: daySpacePrecedingSingleDigitFormatter,
	},
	'F': {
		Parse: composeParseFunctions("year-month-day format", []ParseFunction{
			yearParser,
			hyphenParser,
			monthNumberParser,
			hyphenParser,
			dayParser,
		}),
		Format: yearMonthDayFormatter,
	},
	'f': {Parse: fractionParser, Format: millisecondFormatter},
	'L': {Parse: millisecondParser, Format: millisecondFormatter},
	'H': {Parse: hourParser, Format: hourFormatter},
	'I': {Parse: hour12Parser, Format: hour12Formatter},
	'j': {Parse: dayOfYearParser, Format: dayOfYearFormatter},
	'k': {
		Parse:  composeParseFunctions("24-hour clock hour", []ParseFunction{leadingSpaceAllowedParser, hourParser}),
		Format: hour24SpacePrecedingSingleDigitFormatter,
	},
	'l': {
		Parse:  composeParseFunctions("12-hour clock hour", []ParseFunction{leadingSpaceAllowedParser, hour12Parser}),
		Format: hour12SpacePrecedingSingleDigitFormatter,
	},
	'M': {Parse: minuteParser, Format: minuteFormatter},
	'm': {Parse: monthNumberParser, Format: monthNumberFormatter},
	'n': {Parse: whitespaceParser, Format: newLineFormatter},
	't': {Parse: whitespaceParser, Format: tabFormatter},
	'p': {Parse: largeAMPMParser, Format: largeAMPMFormatter},
	'R': {
		Parse: composeParseFunctions("hour:minute format", []ParseFunction{
			hourParser,
			colonParser,
			minuteParser,
		}),
		Format: hourMinuteFormatter,
	},
	'S': {Parse: secondParser, Format: secondFormatter},
	's': {Parse: unixtimeSecondsParser, Format: unixtimeSecondsFormatter},
	'T': {Parse: hourMinuteSecondParser, Format: hourMinuteSecondFormatter},
	'X': {Parse: hourMinuteSecondParser, Format: hourMinuteSecondFormatter},
	'Y': {Parse: yearParser, Format: yearFormatter},
	'y': {Parse: yearWithoutCenturyParser, Format: yearWithoutCenturyFormatter},
	'%': {Parse: escapeParser, Format: escapeFormatter},
}

// post processors run in this order.
var postProcessorOrder = []rune{'C', 'j', 'p'}

var postProcessorPatternMap = map[rune]*TimeParserPostProcessor{
	'C': {
		ShouldPostProcessResult: centuryShouldPostProcessResult,
		PostProcessResult:       centuryPostProcessor,
	},
	'j': {
		ShouldPostProcessResult: dayOfYearShouldPostProcessResult,
		PostProcessResult:       dayOfYearPostProcessor,
	},
	'p': {
		ShouldPostProcessResult: ampmShouldPostProcessResult,
		PostProcessResult:       ampmPostProcessor,
	},
}

// lookupDirective resolves the directive at the head of format, which must start with '%'.
// It returns the token the directive is recorded under and the number of pattern runes it spans.
func lookupDirective(format []rune) (*FormatTimeInfo, rune, int, error) {
	if len(format) < 2 {
		return nil, 0, 0, fmt.Errorf("invalid time format: trailing %%")
	}
	c := format[1]
	if c == 'E' {
		if len(format) < 3 {
			return nil, 0, 0, fmt.Errorf("invalid time format: trailing %%E")
		}
		info, token, progress, err := combinationPatternInfo(format[2:])
		if err != nil {
			return nil, 0, 0, err
		}
		return info, token, progress + 2, nil
	}
	info := formatPatternMap[c]
	if info == nil {
		return nil, 0, 0, fmt.Errorf("unexpected format type %%%c", c)
	}
	return info, c, 2, nil
}

// fullFractionPrecision is the number of fraction digits %E*S reads (nanoseconds).
const fullFractionPrecision = 9

func combinationPatternInfo(format []rune) (*FormatTimeInfo, rune, int, error) {
	switch format[0] {
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if len(format) > 1 && format[1] == 'S' {
			precision, _ := strconv.Atoi(string(format[0]))
			return &FormatTimeInfo{
				Parse: func(text []rune, t *types.ExtTime) (int, error) {
					return timePrecisionParser(precision, text, t)
				},
				Format: func(t *types.ExtTime) ([]rune, error) {
					return timePrecisionFormatter(precision, t)
				},
			}, 'S', 2, nil
		}
		if format[0] == '4' && len(format) > 1 && format[1] == 'Y' {
			return &FormatTimeInfo{
				Parse:  year4Parser,
				Format: timeYear4Formatter,
			}, 'Y', 2, nil
		}
	case '*':
		if len(format) > 1 && format[1] == 'S' {
			return &FormatTimeInfo{
				Parse: func(text []rune, t *types.ExtTime) (int, error) {
					return timePrecisionParser(fullFractionPrecision, text, t)
				},
				Format: func(t *types.ExtTime) ([]rune, error) {
					return timePrecisionFormatter(6, t)
				},
			}, 'S', 2, nil
		}
	}
	return nil, 0, 0, fmt.Errorf("unexpected format type %%E%c", format[0])
}

// Validate reports whether every directive in pattern is known.
func Validate(pattern string) error {
	format := []rune(pattern)
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		_, _, progress, err := lookupDirective(format[i:])
		if err != nil {
			return err
		}
		i += progress - 1
	}
	return nil
}
