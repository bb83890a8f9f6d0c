package mimepart

import "sync"

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

// Projection holds both views of a part tree.
type Projection struct {
	BodyText    string
	Attachments []Attachment
}

// Extract computes the body text and the attachment list of the tree rooted
// at p. The two traversals run concurrently; neither mutates the tree.
func Extract(p *Part) Projection {
	var (
		proj Projection
		wg   sync.WaitGroup
	)
	wg.Go(func() { proj.BodyText = ExtractBodyText(p) })
	wg.Go(func() { proj.Attachments = ExtractAttachments(p) })
	wg.Wait()
	return proj
}

// attachmentName returns the filename that makes p attachment-eligible.
// Eligibility needs an attachment ID and a resolvable name; the part's own
// Filename is preferred and headers are consulted only when it is empty.
func attachmentName(p *Part) (string, bool) {
	if p.Body.AttachmentID == "" {
		return "", false
	}
	if p.Filename != "" {
		return p.Filename, true
	}
	return FilenameFromHeaders(p.Headers)
}

// ExtractBodyText selects the body text of the tree rooted at p.
//
// text/plain content is preferred over text/html anywhere in the tree.
// Attachment-eligible parts never contribute, even when they carry inline
// data. A nested container that yields text before any text/plain or
// text/html sibling has been seen becomes the result immediately; after
// that, nested text is appended to the plain text.
func ExtractBodyText(p *Part) string {
	if p == nil {
		return ""
	}

	if p.IsLeaf() {
		if (p.MimeType == mimeTextPlain || p.MimeType == mimeTextHTML) && p.Body.Data != "" {
			return DecodeBase64Text(p.Body.Data)
		}
		return ""
	}

	var plain, html string
	for _, child := range p.Parts {
		if child == nil {
			continue
		}
		if _, ok := attachmentName(child); ok {
			continue
		}

		text := ExtractBodyText(child)
		switch {
		case child.MimeType == mimeTextPlain:
			plain += text
		case child.MimeType == mimeTextHTML:
			html += text
		case text != "":
			if plain == "" && html == "" {
				return text
			}
			plain += text
		}
	}

	if plain != "" {
		return plain
	}
	return html
}

// ExtractAttachments lists every attachment-eligible part of the tree in
// depth-first, left-to-right order, a part before its children. The result
// is never nil.
func ExtractAttachments(p *Part) []Attachment {
	attachments := []Attachment{}
	collectAttachments(p, &attachments)
	return attachments
}

func collectAttachments(p *Part, out *[]Attachment) {
	if p == nil {
		return
	}
	if name, ok := attachmentName(p); ok {
		*out = append(*out, Attachment{
			AttachmentID: p.Body.AttachmentID,
			FileName:     name,
			MimeType:     p.MimeType,
			Size:         p.Body.Size,
		})
	}
	for _, child := range p.Parts {
		collectAttachments(child, out)
	}
}
