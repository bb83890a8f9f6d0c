package mimepart

import (
	"encoding/base64"
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// DecodeBase64Text decodes Gmail's base64url body data into text. Padding is
// optional and the standard alphabet is accepted as a fallback. Bytes that
// are not valid UTF-8 are dropped. Any decoding error yields "".
func DecodeBase64Text(data string) string {
	if data == "" {
		return ""
	}

	trimmed := strings.TrimRight(data, "=")
	decoded, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(trimmed)
		if err != nil {
			return ""
		}
	}

	return strings.ToValidUTF8(string(decoded), "")
}

// wordDecoder resolves RFC 2047 charsets through the IANA registry. Unknown
// charsets pass the raw bytes through; DecodeFilename then drops whatever is
// not valid UTF-8.
var wordDecoder = mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "", "us-ascii", "utf-8", "utf8":
			return input, nil
		}
		enc, _ := ianaindex.MIME.Encoding(charset)
		if enc == nil {
			enc, _ = ianaindex.IANA.Encoding(charset)
		}
		if enc == nil {
			return input, nil
		}
		return enc.NewDecoder().Reader(input), nil
	},
}

// DecodeFilename decodes a header-supplied filename that may mix plain text
// with RFC 2047 encoded-words. On failure the raw value is returned
// unchanged.
func DecodeFilename(raw string) string {
	if !strings.Contains(raw, "=?") {
		return raw
	}

	decoded, err := wordDecoder.DecodeHeader(raw)
	if err != nil {
		return raw
	}
	return strings.ToValidUTF8(decoded, "")
}
