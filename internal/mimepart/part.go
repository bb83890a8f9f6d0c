package mimepart

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultMaxDepth is the nesting limit applied when building trees from
// untrusted input. A single leaf has depth 0.
const DefaultMaxDepth = 64

// ErrTooDeep is returned by tree constructors when nesting exceeds the
// configured depth limit.
var ErrTooDeep = errors.New("mime structure too deep")

// Body carries the content reference of a part. An empty AttachmentID or
// Data means the field is absent.
type Body struct {
	AttachmentID string `json:"attachmentId,omitempty"`
	Data         string `json:"data,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// Header is a single raw MIME header. Names compare case-insensitively.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Part is one node of a message's MIME structure. A part without children
// is a leaf. Trees are treated as immutable once built.
type Part struct {
	MimeType string   `json:"mimeType,omitempty"`
	Filename string   `json:"filename,omitempty"`
	Body     Body     `json:"body"`
	Parts    []*Part  `json:"parts,omitempty"`
	Headers  []Header `json:"headers,omitempty"`
}

// IsLeaf reports whether the part has no children.
func (p *Part) IsLeaf() bool {
	return len(p.Parts) == 0
}

// Attachment describes an attachment-eligible part. The content itself is
// fetched separately by AttachmentID.
type Attachment struct {
	AttachmentID string `json:"attachment_id"`
	FileName     string `json:"file_name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
}

// ParseJSON builds a part tree from its Gmail JSON representation
// (mimeType, filename, body{attachmentId,data,size}, parts, headers).
// Trees nested deeper than maxDepth are rejected with ErrTooDeep; a
// non-positive maxDepth selects DefaultMaxDepth.
func ParseJSON(data []byte, maxDepth int) (*Part, error) {
	var root Part
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse part tree: %w", err)
	}
	if err := CheckDepth(&root, maxDepth); err != nil {
		return nil, err
	}
	return &root, nil
}

// CheckDepth walks the tree iteratively and returns ErrTooDeep if any part
// sits deeper than maxDepth. Nil children are rejected as malformed.
func CheckDepth(root *Part, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if root == nil {
		return errors.New("part tree is empty")
	}

	type frame struct {
		part  *Part
		depth int
	}
	stack := []frame{{part: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > maxDepth {
			return fmt.Errorf("%w: depth exceeds %d", ErrTooDeep, maxDepth)
		}
		for i, child := range f.part.Parts {
			if child == nil {
				return fmt.Errorf("part at depth %d has nil child %d", f.depth, i)
			}
			stack = append(stack, frame{part: child, depth: f.depth + 1})
		}
	}
	return nil
}
