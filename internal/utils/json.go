package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a model response contains no JSON value at all.
var ErrNoJSON = errors.New("no JSON found in response")

// Repairs for common model output mistakes. They are applied only after a
// strict decode failed.
var (
	// "a"\n"b": -> "a",\n"b":
	missingCommaBeforeKeyRegex = regexp.MustCompile(`(")\s*\n\s*("[\w][^"]*"\s*:)`)
	// 1\n"b": -> 1,\n"b":
	missingCommaAfterValueRegex = regexp.MustCompile(`(\d|true|false|null)\s*\n\s*("[\w][^"]*"\s*:)`)
	// } "b" -> }, "b"
	missingCommaAfterBraceRegex = regexp.MustCompile(`([}\]])\s*\n?\s*([{"])`)
	trailingCommaRegex          = regexp.MustCompile(`,\s*([}\]])`)
	singleQuoteKeyRegex         = regexp.MustCompile(`([{,]\s*)'(\w+)'(\s*:)`)
	singleQuoteValueRegex       = regexp.MustCompile(`(:\s*)'((?:[^'\\]|\\.)*)'(\s*[,}\]])`)
)

// ExtractAndParseJSON decodes the first JSON value found in a model response.
//
// The response may be wrapped in a markdown fence and may carry prose before
// or after the value. Text after the last closing brace is cut before
// decoding, so responses like `{"a":1} Hope this helps!` parse. When strict
// decoding fails the value is repaired (trailing commas, single quotes,
// invalid escapes, missing closers) and decoded again.
func ExtractAndParseJSON[T any](response string) (T, error) {
	var result T

	cleaned := cleanLLMResponse(response)
	if cleaned == "" {
		return result, ErrNoJSON
	}

	// A JSON document serialized as a string.
	if cleaned[0] == '"' {
		var inner string
		if err := json.Unmarshal([]byte(cleaned), &inner); err == nil {
			return ExtractAndParseJSON[T](inner)
		}
	}

	start := strings.IndexAny(cleaned, "{[")
	if start == -1 {
		return result, ErrNoJSON
	}

	candidate := TruncateToLastBrace(cleaned[start:])
	firstErr := decodeFirst(candidate, &result)
	if firstErr == nil {
		return result, nil
	}

	for _, attempt := range []string{
		repairJSON(candidate),
		repairJSON(cleaned[start:]),
	} {
		var retry T
		if err := decodeFirst(attempt, &retry); err == nil {
			return retry, nil
		}
	}
	return result, fmt.Errorf("parse JSON: %w", firstErr)
}

// TruncateToLastBrace trims s and cuts everything after its last '}' or ']'.
// Input without a closing delimiter is returned trimmed.
func TruncateToLastBrace(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexAny(s, "}]"); i >= 0 {
		return s[:i+1]
	}
	return s
}

// decodeFirst decodes one value and ignores anything that follows it.
func decodeFirst(s string, v any) error {
	return json.NewDecoder(strings.NewReader(s)).Decode(v)
}

func repairJSON(input string) string {
	out := sanitizeStrings(input)
	out = missingCommaBeforeKeyRegex.ReplaceAllString(out, `$1, $2`)
	out = missingCommaAfterValueRegex.ReplaceAllString(out, `$1, $2`)
	out = missingCommaAfterBraceRegex.ReplaceAllString(out, `$1, $2`)
	out = trailingCommaRegex.ReplaceAllString(out, `$1`)
	out = singleQuoteKeyRegex.ReplaceAllString(out, `$1"$2"$3`)
	out = singleQuoteValueRegex.ReplaceAllStringFunc(out, func(match string) string {
		parts := singleQuoteValueRegex.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}
		value := strings.ReplaceAll(parts[2], `\'`, `'`)
		value = strings.ReplaceAll(value, `"`, `\"`)
		return parts[1] + `"` + value + `"` + parts[3]
	})
	return closeTruncated(out)
}

// sanitizeStrings escapes raw control characters inside string literals and
// doubles backslashes that do not start a valid JSON escape, e.g. "C:\code".
func sanitizeStrings(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	inString := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			inString = false
			b.WriteByte(c)
		case '\\':
			if i+1 < len(input) && strings.IndexByte(`"\/bfnrtu`, input[i+1]) >= 0 {
				b.WriteByte(c)
				b.WriteByte(input[i+1])
				i++
			} else {
				b.WriteString(`\\`)
			}
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// closeTruncated closes an unterminated string and any open objects or arrays,
// innermost first.
func closeTruncated(input string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			stack = append(stack, '}')
		case c == '[':
			stack = append(stack, ']')
		case (c == '}' || c == ']') && len(stack) > 0:
			stack = stack[:len(stack)-1]
		}
	}
	if inString {
		input += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		input += string(stack[i])
	}
	return input
}

// cleanLLMResponse strips surrounding whitespace and markdown code fences.
func cleanLLMResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		if nl := strings.IndexByte(response, '\n'); nl >= 0 && !strings.ContainsAny(response[:nl], "{[") {
			response = response[nl+1:]
		}
	}
	response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	return strings.TrimSpace(response)
}
