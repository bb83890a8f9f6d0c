package gmail

import (
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mcp-gmail-server/internal/mimepart"
)

// PartFromMessagePart converts a Gmail API payload into a mimepart tree.
// Nesting deeper than maxDepth fails with mimepart.ErrTooDeep; a
// non-positive maxDepth selects mimepart.DefaultMaxDepth. A nil payload
// yields an empty part.
func PartFromMessagePart(mp *gmail.MessagePart, maxDepth int) (*mimepart.Part, error) {
	if maxDepth <= 0 {
		maxDepth = mimepart.DefaultMaxDepth
	}
	if mp == nil {
		return &mimepart.Part{}, nil
	}
	return convertPart(mp, 0, maxDepth)
}

func convertPart(mp *gmail.MessagePart, depth, maxDepth int) (*mimepart.Part, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: depth exceeds %d", mimepart.ErrTooDeep, maxDepth)
	}

	p := &mimepart.Part{
		MimeType: mp.MimeType,
		Filename: mp.Filename,
	}
	if mp.Body != nil {
		p.Body = mimepart.Body{
			AttachmentID: mp.Body.AttachmentId,
			Data:         mp.Body.Data,
			Size:         mp.Body.Size,
		}
	}
	if len(mp.Headers) > 0 {
		p.Headers = make([]mimepart.Header, 0, len(mp.Headers))
		for _, h := range mp.Headers {
			if h == nil {
				continue
			}
			p.Headers = append(p.Headers, mimepart.Header{Name: h.Name, Value: h.Value})
		}
	}
	if len(mp.Parts) > 0 {
		p.Parts = make([]*mimepart.Part, 0, len(mp.Parts))
		for _, child := range mp.Parts {
			if child == nil {
				continue
			}
			cp, err := convertPart(child, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			p.Parts = append(p.Parts, cp)
		}
	}

	return p, nil
}

// headerValue returns the value of the last header named name. Names compare
// case-insensitively.
func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	var value string
	for _, h := range headers {
		if h != nil && strings.EqualFold(h.Name, name) {
			value = h.Value
		}
	}
	return value
}
