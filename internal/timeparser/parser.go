package timeparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/date-detector/types"
)

// NoMatch is the position Parse returns when the pattern failed before reaching
// the end of its directives.
const NoMatch = -1

// Parse matches text against pattern and writes every field the pattern mentions into t.
// Fields the pattern does not mention are left untouched.
//
// The returned position is the number of runes of text consumed. The pattern fully
// matched only when the position equals the rune length of text; a shorter position
// means text has unparsed trailing characters. Any failure returns NoMatch with the cause.
func Parse(text, pattern string, t *types.ExtTime) (int, error) {
	format := []rune(pattern)
	target := []rune(text)
	var (
		targetIdx int
		formatIdx int
	)
	tokenToParseIndices := map[rune][2]int{}
	for formatIdx < len(format) {
		c := format[formatIdx]
		switch {
		case c == '%':
			info, token, formatProgress, err := lookupDirective(format[formatIdx:])
			if err != nil {
				return NoMatch, err
			}
			progress, err := info.Parse(target[targetIdx:], t)
			if err != nil {
				return NoMatch, fmt.Errorf("error parsing [%s] with format [%s]: %w", text, pattern, err)
			}
			tokenToParseIndices[token] = [2]int{targetIdx, targetIdx + progress}
			targetIdx += progress
			formatIdx += formatProgress
		case unicode.IsSpace(c):
			formatIdx++
			// Slurp whitespaces when parsing a whitespace token
			for targetIdx < len(target) && unicode.IsSpace(target[targetIdx]) {
				targetIdx++
			}
		default:
			if targetIdx >= len(target) || target[targetIdx] != c {
				return NoMatch, fmt.Errorf("error parsing [%s] with format [%s]: [%c] not found at %d", text, pattern, c, targetIdx)
			}
			formatIdx++
			targetIdx++
		}
	}

	// Post-process any deferred parsers
	for _, token := range postProcessorOrder {
		if _, exists := tokenToParseIndices[token]; !exists {
			continue
		}
		info := postProcessorPatternMap[token]
		if !info.ShouldPostProcessResult(tokenToParseIndices) {
			continue
		}
		if err := info.PostProcessResult(target, tokenToParseIndices, t); err != nil {
			return NoMatch, fmt.Errorf("error parsing [%s] with format [%s]: %w", text, pattern, err)
		}
	}
	return targetIdx, nil
}

// FullMatch reports whether pattern consumes the whole of text.
func FullMatch(text, pattern string, t *types.ExtTime) bool {
	end, err := Parse(text, pattern, t)
	return err == nil && end == len([]rune(text))
}

func createStaticTextParser(static string) ParseFunction {
	expected := []rune(static)
	length := len(expected)
	return func(text []rune, t *types.ExtTime) (int, error) {
		if len(text) < length || string(text[:length]) != static {
			return 0, fmt.Errorf("[%s] not found", static)
		}
		return length, nil
	}
}

var hyphenParser = createStaticTextParser("-")
var colonParser = createStaticTextParser(":")
var slashParser = createStaticTextParser("/")
var escapeParser = createStaticTextParser("%")

func spaceParser(text []rune, t *types.ExtTime) (int, error) {
	progress := 0
	for progress < len(text) && text[progress] == ' ' {
		progress++
	}
	if progress == 0 {
		return 0, fmt.Errorf("space not found")
	}
	return progress, nil
}

func whitespaceParser(text []rune, t *types.ExtTime) (int, error) {
	progress := 0
	for progress < len(text) && unicode.IsSpace(text[progress]) {
		progress++
	}
	return progress, nil
}

func composeParseFunctions(name string, parsers []ParseFunction) ParseFunction {
	return func(text []rune, t *types.ExtTime) (int, error) {
		progress := 0
		for _, parser := range parsers {
			step, err := parser(text[progress:], t)
			if err != nil {
				return 0, fmt.Errorf("could not parse %s: %s after [%s]", name, err, string(text[:progress]))
			}
			progress += step
		}
		return progress, nil
	}
}

// matchName matches the longest of the full name or its three letter abbreviation, ignoring case.
func matchName(text []rune, name string) int {
	const shortLen = 3
	full := []rune(name)
	if len(text) >= len(full) && strings.EqualFold(string(text[:len(full)]), name) {
		return len(full)
	}
	if len(text) >= shortLen && strings.EqualFold(string(text[:shortLen]), string(full[:shortLen])) {
		return shortLen
	}
	return 0
}

func weekOfDayParser(text []rune, t *types.ExtTime) (int, error) {
	for _, dayOfWeek := range dayOfWeeks {
		if progress := matchName(text, string(dayOfWeek)); progress > 0 {
			return progress, nil
		}
	}
	return 0, fmt.Errorf("unexpected day of week")
}

func monthParser(text []rune, t *types.ExtTime) (int, error) {
	for monthIdx, month := range months {
		if progress := matchName(text, string(month)); progress > 0 {
			t.Month = monthIdx
			return progress, nil
		}
	}
	return 0, fmt.Errorf("unexpected month")
}

func centuryParser(text []rune, t *types.ExtTime) (int, error) {
	progress, c, err := parseDigitRespectingOptionalPlaces(text, 0, 99)
	if err != nil {
		return 0, fmt.Errorf("could not parse century number: %s", err)
	}
	t.Year = int(c)*100 - 1900
	return progress, nil
}

func expandYearWithoutCentury(year int64) int64 {
	if year >= 69 {
		return year + 1900
	}
	return year + 2000
}

func yearWithoutCenturyParser(text []rune, t *types.ExtTime) (int, error) {
	progress, year, err := parseDigitRespectingOptionalPlaces(text, 0, 99)
	if err != nil {
		return 0, fmt.Errorf("could not parse year without century: %s", err)
	}
	t.Year = int(expandYearWithoutCentury(year)) - 1900
	return progress, nil
}

func centuryShouldPostProcessResult(tokens map[rune][2]int) bool {
	_, ok := tokens['y']
	return ok
}

// centuryPostProcessor combines %C with %y regardless of their order in the pattern.
func centuryPostProcessor(text []rune, tokens map[rune][2]int, t *types.ExtTime) error {
	century := tokens['C']
	_, c, err := parseDigitRespectingOptionalPlaces(text[century[0]:century[1]], 0, 99)
	if err != nil {
		return err
	}
	year := tokens['y']
	_, y, err := parseDigitRespectingOptionalPlaces(text[year[0]:year[1]], 0, 99)
	if err != nil {
		return err
	}
	t.Year = int(c*100+y) - 1900
	return nil
}

var monthDayYearParser = composeParseFunctions("month/day/year format", []ParseFunction{
	monthNumberParser,
	slashParser,
	dayParser,
	slashParser,
	yearWithoutCenturyParser,
})

func dayParser(text []rune, t *types.ExtTime) (int, error) {
	progress, days, err := parseDigitRespectingOptionalPlaces(text, 1, 31)
	if err != nil {
		return 0, fmt.Errorf("could not parse day number: %s", err)
	}
	t.Day = int(days)
	return progress, nil
}

func hourParser(text []rune, t *types.ExtTime) (int, error) {
	progress, h, err := parseDigitRespectingOptionalPlaces(text, 0, 23)
	if err != nil {
		return 0, fmt.Errorf("could not parse hour number: %s", err)
	}
	t.Hour = int(h)
	return progress, nil
}

func leadingSpaceAllowedParser(text []rune, t *types.ExtTime) (int, error) {
	if len(text) > 0 && text[0] == ' ' {
		return 1, nil
	}
	return 0, nil
}

func hour12Parser(text []rune, t *types.ExtTime) (int, error) {
	progress, h, err := parseDigitRespectingOptionalPlaces(text, 1, 12)
	if err != nil {
		return 0, fmt.Errorf("could not parse hour number: %s", err)
	}
	t.Hour = int(h)
	return progress, nil
}

func dayOfYearParser(text []rune, t *types.ExtTime) (int, error) {
	progress, _, err := parseDigitRespectingOptionalPlaces(text, 1, 366)
	if err != nil {
		return 0, fmt.Errorf("could not parse day of year number: %s", err)
	}
	return progress, nil
}

func dayOfYearShouldPostProcessResult(tokens map[rune][2]int) bool {
	return true
}

// dayOfYearPostProcessor resolves %j once the year is known. Without a year the
// epoch year is assumed.
func dayOfYearPostProcessor(text []rune, tokens map[rune][2]int, t *types.ExtTime) error {
	indices := tokens['j']
	_, d, err := parseDigitRespectingOptionalPlaces(text[indices[0]:indices[1]], 1, 366)
	if err != nil {
		return err
	}
	year := types.DefaultYear
	if t.HasYear() {
		year = t.Year
	}
	date := time.Date(year+1900, time.January, int(d), 0, 0, 0, 0, time.UTC)
	if date.Year() != year+1900 {
		return fmt.Errorf("day of year [%d] is out of range for year [%d]", d, year+1900)
	}
	t.Month = int(date.Month()) - 1
	t.Day = date.Day()
	return nil
}

func minuteParser(text []rune, t *types.ExtTime) (int, error) {
	progress, m, err := parseDigitRespectingOptionalPlaces(text, 0, 59)
	if err != nil {
		return 0, fmt.Errorf("unexpected minute number: %s", err)
	}
	t.Minute = int(m)
	return progress, nil
}

func parseDigitRespectingOptionalPlaces(text []rune, minNumber int64, maxNumber int64) (int, int64, error) {
	// Given a target value of `minNumber` and `maxNumber`, parse the given text up to `maxNumber`'s places
	// If a non-digit character is encountered, consider the digit parsed and move on
	// e.g. ('3', 0, 99) == 3  ('03', 0, 99) == 3 ('04/', 0, 999) == 4
	if len(text) == 0 {
		return 0, 0, fmt.Errorf("empty text")
	}
	places := len(strconv.FormatInt(maxNumber, 10))
	steps := places
	if len(text) < places {
		steps = len(text)
	}
	digits := 0
	for digits < steps && isDigit(text[digits]) {
		digits++
	}
	if digits == 0 {
		return 0, 0, fmt.Errorf("leading character is not a digit")
	}
	result, err := strconv.ParseInt(string(text[:digits]), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if result > maxNumber {
		return 0, 0, fmt.Errorf("part [%d] is greater than maximum value [%d]", result, maxNumber)
	}
	if result < minNumber {
		return 0, 0, fmt.Errorf("part [%d] is less than minimum value [%d]", result, minNumber)
	}
	return digits, result, nil
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func monthNumberParser(text []rune, t *types.ExtTime) (int, error) {
	progress, months, err := parseDigitRespectingOptionalPlaces(text, 1, 12)
	if err != nil {
		return 0, fmt.Errorf("could not parse month: %s", err)
	}
	t.Month = int(months) - 1
	return progress, nil
}

func largeAMPMParser(text []rune, t *types.ExtTime) (int, error) {
	if len(text) < 2 {
		return 0, fmt.Errorf("cannot parse am/pm format: remaining text [%s]", string(text))
	}
	timeOfDay := strings.ToLower(string(text[:2]))
	if timeOfDay != "am" && timeOfDay != "pm" {
		return 0, fmt.Errorf("cannot parse am/pm format: [%s] is not am/pm", string(text))
	}
	return 2, nil
}

func ampmShouldPostProcessResult(tokens map[rune][2]int) bool {
	// Any 24-hour format tokens override am/pm parsing
	overrideTokens := []rune{'X', 'T', 'R', 'k', 'H', 'c'}
	for _, token := range overrideTokens {
		if _, ok := tokens[token]; ok {
			return false
		}
	}

	// Process deferred parse if 12-hour format tokens were used, otherwise we can no-op
	deferredTokens := []rune{'l', 'I'}
	for _, token := range deferredTokens {
		if _, ok := tokens[token]; ok {
			return true
		}
	}
	return false
}

func ampmPostProcessor(text []rune, tokens map[rune][2]int, t *types.ExtTime) error {
	indices := tokens['p']
	morning := strings.EqualFold(string(text[indices[0]:indices[1]]), "am")
	hour := t.Hour
	if morning {
		hour %= 12
	}
	if !morning && hour < 12 {
		hour += 12
	}
	t.Hour = hour
	return nil
}

func secondParser(text []rune, t *types.ExtTime) (int, error) {
	progress, s, err := parseDigitRespectingOptionalPlaces(text, 0, 60)
	if err != nil {
		return 0, fmt.Errorf("unexpected second number: %s", err)
	}
	t.Second = int(s)
	return progress, nil
}

// millisecondFromFraction keeps millisecond precision of a fraction given as digits.
func millisecondFromFraction(digits []rune) int {
	const msLen = 3
	frac := string(digits)
	if len(frac) > msLen {
		frac = frac[:msLen]
	}
	frac += strings.Repeat("0", msLen-len(frac))
	ms, _ := strconv.Atoi(frac)
	return ms
}

func fractionParser(text []rune, t *types.ExtTime) (int, error) {
	const maxFractionLength = 9
	digits := 0
	for digits < len(text) && digits < maxFractionLength && isDigit(text[digits]) {
		digits++
	}
	if digits == 0 {
		return 0, fmt.Errorf("unexpected fraction of second")
	}
	t.Millisecond = millisecondFromFraction(text[:digits])
	return digits, nil
}

func millisecondParser(text []rune, t *types.ExtTime) (int, error) {
	const msLen = 3
	if len(text) < msLen {
		return 0, fmt.Errorf("unexpected millisecond length")
	}
	for _, r := range text[:msLen] {
		if !isDigit(r) {
			return 0, fmt.Errorf("unexpected millisecond number")
		}
	}
	t.Millisecond = millisecondFromFraction(text[:msLen])
	return msLen, nil
}

func unixtimeSecondsParser(text []rune, t *types.ExtTime) (int, error) {
	const maxUnixtimeLen = 19
	progress := 0
	if len(text) > 0 && text[0] == '-' {
		progress++
	}
	start := progress
	for progress < len(text) && progress-start < maxUnixtimeLen && isDigit(text[progress]) {
		progress++
	}
	if progress == start {
		return 0, fmt.Errorf("unexpected unixtime number")
	}
	u, err := strconv.ParseInt(string(text[:progress]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected unixtime number: %w", err)
	}
	loc := t.Location
	*t = *types.ExtTimeFromTime(time.Unix(u, 0).In(t.Zone()))
	t.Location = loc
	return progress, nil
}

var hourMinuteSecondParser = composeParseFunctions("hour:minute:second format", []ParseFunction{
	hourParser,
	colonParser,
	minuteParser,
	colonParser,
	secondParser,
})

func yearParser(text []rune, t *types.ExtTime) (int, error) {
	progress, y, err := parseDigitRespectingOptionalPlaces(text, 0, 9999)
	if err != nil {
		return 0, fmt.Errorf("could not parse year: %s", err)
	}
	t.Year = int(y) - 1900
	return progress, nil
}

func year4Parser(text []rune, t *types.ExtTime) (int, error) {
	const yearLen = 4
	if len(text) < yearLen {
		return 0, fmt.Errorf("unexpected four digit year")
	}
	progress, err := yearParser(text[:yearLen], t)
	if err != nil {
		return 0, err
	}
	if progress != yearLen {
		return 0, fmt.Errorf("unexpected four digit year")
	}
	return progress, nil
}

func timePrecisionParser(precision int, text []rune, t *types.ExtTime) (int, error) {
	progress, err := secondParser(text, t)
	if err != nil {
		return 0, err
	}
	t.Millisecond = 0
	if progress >= len(text) || text[progress] != '.' {
		return progress, nil
	}
	progress++
	start := progress
	for progress < len(text) && progress-start < precision && isDigit(text[progress]) {
		progress++
	}
	t.Millisecond = millisecondFromFraction(text[start:progress])
	return progress, nil
}
