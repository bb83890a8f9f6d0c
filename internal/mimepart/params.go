package mimepart

import (
	"io"
	"net/url"
	"strings"
)

// param is one name=value pair scanned out of a structured header value.
type param struct {
	name  string
	value string
}

// scanParams splits a header value such as
//
//	attachment; filename="report; final.pdf"; size=1024
//
// into its parameters. The leading disposition or media type has no '=' and
// is skipped. Quoted values may contain ';' and backslash escapes; unquoted
// values run to the next ';' and are trimmed. Parameter names are
// lower-cased.
func scanParams(value string) []param {
	var params []param

	i := 0
	for i < len(value) {
		// Name runs up to '=' or ';'.
		start := i
		for i < len(value) && value[i] != '=' && value[i] != ';' {
			i++
		}
		name := strings.ToLower(strings.TrimSpace(value[start:i]))
		if i >= len(value) || value[i] == ';' {
			i++
			continue
		}
		i++ // '='

		for i < len(value) && (value[i] == ' ' || value[i] == '\t') {
			i++
		}

		var val string
		if i < len(value) && value[i] == '"' {
			val, i = scanQuoted(value, i+1)
			// Discard anything between the closing quote and the next ';'.
			for i < len(value) && value[i] != ';' {
				i++
			}
		} else {
			start = i
			for i < len(value) && value[i] != ';' {
				i++
			}
			val = strings.TrimSpace(value[start:i])
		}
		i++ // ';'

		if name != "" {
			params = append(params, param{name: name, value: val})
		}
	}

	return params
}

// scanQuoted reads a quoted-string body starting just after the opening
// quote. It returns the unescaped content and the index after the closing
// quote, or the end of input if the quote is never closed.
func scanQuoted(value string, i int) (string, int) {
	var b strings.Builder
	for i < len(value) {
		c := value[i]
		switch {
		case c == '\\' && i+1 < len(value):
			b.WriteByte(value[i+1])
			i += 2
		case c == '"':
			return b.String(), i + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), i
}

// lookupParam returns the trimmed value of the first parameter named key or
// key*, in header order. Empty values do not count as a match.
func lookupParam(params []param, key string) (param, bool) {
	for _, p := range params {
		if p.name != key && p.name != key+"*" {
			continue
		}
		p.value = strings.TrimSpace(p.value)
		if p.value == "" {
			continue
		}
		return p, true
	}
	return param{}, false
}

// decodeExtValue decodes an RFC 2231 extended value (charset'lang'pct-data).
// Values without the charset prefix are returned unchanged.
func decodeExtValue(value string) string {
	charset, rest, ok := strings.Cut(value, "'")
	if !ok {
		return value
	}
	_, encoded, ok := strings.Cut(rest, "'")
	if !ok {
		return value
	}

	unescaped, err := url.PathUnescape(encoded)
	if err != nil {
		return value
	}
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return strings.ToValidUTF8(unescaped, "")
	}

	reader, err := wordDecoder.CharsetReader(charset, strings.NewReader(unescaped))
	if err != nil {
		return value
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return value
	}
	return strings.ToValidUTF8(string(decoded), "")
}

// headerLookup indexes headers by lower-cased name. Later duplicates
// replace earlier ones.
func headerLookup(headers []Header) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[strings.ToLower(h.Name)] = h.Value
	}
	return m
}

// FilenameFromHeaders resolves an attachment filename from raw part
// headers. Content-Disposition's filename parameter wins over
// Content-Type's name parameter. The value is decoded with DecodeFilename.
func FilenameFromHeaders(headers []Header) (string, bool) {
	if len(headers) == 0 {
		return "", false
	}
	lookup := headerLookup(headers)

	for _, source := range []struct {
		header string
		param  string
	}{
		{header: "content-disposition", param: "filename"},
		{header: "content-type", param: "name"},
	} {
		value, ok := lookup[source.header]
		if !ok {
			continue
		}
		p, ok := lookupParam(scanParams(value), source.param)
		if !ok {
			continue
		}

		raw := p.value
		if strings.HasSuffix(p.name, "*") {
			raw = decodeExtValue(raw)
		}
		if name := DecodeFilename(raw); name != "" {
			return name, true
		}
	}

	return "", false
}
