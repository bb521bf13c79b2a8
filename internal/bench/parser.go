package bench

import (
	"regexp"
	"strconv"
	"strings"
)

// The compiler's --extendedDiagnostics output is free text and drifts between
// releases, so every metric is extracted by its own label-anchored pattern.
// A label that does not match leaves its field nil and never affects the
// other extractors.
var (
	filesRe  = regexp.MustCompile(`(?m)^Files:\s+([\d,]+)`)
	linesRe  = regexp.MustCompile(`(?m)^Lines:\s+([\d,]+)`)
	memoryRe = regexp.MustCompile(`(?m)^Memory used:\s+([\d,]+)K`)
	totalRe  = regexp.MustCompile(`(?m)^Total time:\s+([\d.]+)s`)

	// Phase times only appear inside the timing block that starts at the
	// first "Parse time" label. If the block is absent, every phase field
	// stays nil.
	phaseBlockRe = regexp.MustCompile(`(?m)^Parse time:`)
	parseTimeRe  = regexp.MustCompile(`(?m)^Parse time:\s+([\d.]+)s`)
	bindTimeRe   = regexp.MustCompile(`(?m)^Bind time:\s+([\d.]+)s`)
	checkTimeRe  = regexp.MustCompile(`(?m)^Check time:\s+([\d.]+)s`)
	emitTimeRe   = regexp.MustCompile(`(?m)^Emit time:\s+([\d.]+)s`)

	// Diagnostic count: the modern summary first, the old
	// "N errors, M warnings" style (summed) as fallback.
	foundRe   = regexp.MustCompile(`Found ([\d,]+) error`)
	summaryRe = regexp.MustCompile(`([\d,]+) errors?, ([\d,]+) warnings?`)
)

// ParseDiagnostics extracts metrics from combined compiler output. Missing
// labels yield nil fields; the diagnostic count defaults to zero, which is
// deliberately distinct from nil ("parsed fine, no diagnostics reported"
// versus "could not be parsed").
func ParseDiagnostics(output string) Metrics {
	m := Metrics{
		Files:        matchInt(filesRe, output),
		Lines:        matchInt(linesRe, output),
		MemoryKB:     matchInt(memoryRe, output),
		TotalTimeSec: matchFloat(totalRe, output),
	}

	if loc := phaseBlockRe.FindStringIndex(output); loc != nil {
		block := output[loc[0]:]
		m.ParseTimeSec = matchFloat(parseTimeRe, block)
		m.BindTimeSec = matchFloat(bindTimeRe, block)
		m.CheckTimeSec = matchFloat(checkTimeRe, block)
		m.EmitTimeSec = matchFloat(emitTimeRe, block)
	}

	m.Diagnostics = int64Ptr(countDiagnostics(output))
	return m
}

func countDiagnostics(output string) int64 {
	if match := foundRe.FindStringSubmatch(output); match != nil {
		return parseNumber(match[1])
	}
	if match := summaryRe.FindStringSubmatch(output); match != nil {
		return parseNumber(match[1]) + parseNumber(match[2])
	}
	return 0
}

func matchInt(re *regexp.Regexp, s string) *int64 {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	return int64Ptr(parseNumber(match[1]))
}

func matchFloat(re *regexp.Regexp, s string) *float64 {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	return floatPtr(v)
}

// parseNumber handles the thousands separators tsc puts in large counts.
func parseNumber(s string) int64 {
	v, _ := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	return v
}
