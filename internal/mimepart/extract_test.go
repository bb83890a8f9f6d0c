package mimepart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textPart(mimeType, text string) *Part {
	return &Part{MimeType: mimeType, Body: Body{Data: b64(text)}}
}

func filePart(mimeType, attachmentID, filename string, size int64) *Part {
	return &Part{
		MimeType: mimeType,
		Filename: filename,
		Body:     Body{AttachmentID: attachmentID, Size: size},
	}
}

func container(mimeType string, children ...*Part) *Part {
	return &Part{MimeType: mimeType, Parts: children}
}

func TestExtractBodyText_Leaf(t *testing.T) {
	tests := []struct {
		name string
		part *Part
		want string
	}{
		{"plain leaf", textPart("text/plain", "Hello, World!"), "Hello, World!"},
		{"html leaf", textPart("text/html", "<p>HTML text</p>"), "<p>HTML text</p>"},
		{"image leaf", textPart("image/png", "not text"), ""},
		{"plain leaf without data", &Part{MimeType: "text/plain"}, ""},
		{"mime type must match exactly", textPart("text/plain; charset=utf-8", "x"), ""},
		{"undecodable data", &Part{MimeType: "text/plain", Body: Body{Data: "invalid_base64!!!"}}, ""},
		{"nil part", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBodyText(tt.part))
		})
	}
}

func TestExtractBodyText_PrefersPlain(t *testing.T) {
	root := container("multipart/alternative",
		textPart("text/html", "<p>HTML text</p>"),
		textPart("text/plain", "Plain text"),
	)
	assert.Equal(t, "Plain text", ExtractBodyText(root))
}

func TestExtractBodyText_HTMLOnly(t *testing.T) {
	root := container("multipart/alternative", textPart("text/html", "<p>HTML text</p>"))
	assert.Equal(t, "<p>HTML text</p>", ExtractBodyText(root))
}

func TestExtractBodyText_AccumulatesSiblings(t *testing.T) {
	root := container("multipart/mixed",
		textPart("text/plain", "one "),
		textPart("text/plain", "two"),
		textPart("text/html", "<b>ignored</b>"),
	)
	assert.Equal(t, "one two", ExtractBodyText(root))
}

func TestExtractBodyText_SkipsAttachments(t *testing.T) {
	inlineAttachment := textPart("text/plain", "attached notes")
	inlineAttachment.Body.AttachmentID = "att1"
	inlineAttachment.Filename = "notes.txt"

	root := container("multipart/mixed",
		inlineAttachment,
		textPart("text/html", "<p>body</p>"),
	)
	assert.Equal(t, "<p>body</p>", ExtractBodyText(root))
}

func TestExtractBodyText_UnnamedAttachmentIDStillContributes(t *testing.T) {
	part := textPart("text/plain", "visible")
	part.Body.AttachmentID = "att1"

	root := container("multipart/mixed", part)
	assert.Equal(t, "visible", ExtractBodyText(root))
}

func TestExtractBodyText_Nested(t *testing.T) {
	root := container("multipart/mixed",
		container("multipart/alternative",
			textPart("text/plain", "text"),
			textPart("text/html", "<p>text</p>"),
		),
		filePart("application/pdf", "att_nested", "nested.pdf", 2048),
	)
	assert.Equal(t, "text", ExtractBodyText(root))
}

// The nested-container branch returns early when nothing direct has been
// collected yet and appends to the plain text otherwise. These cases pin that
// behaviour.
func TestExtractBodyText_NestedContainerCompatibility(t *testing.T) {
	tests := []struct {
		name string
		root *Part
		want string
	}{
		{
			name: "nested text first returns immediately",
			root: container("multipart/mixed",
				container("multipart/alternative", textPart("text/plain", "nested")),
				textPart("text/plain", "after"),
			),
			want: "nested",
		},
		{
			name: "nested text after plain is appended",
			root: container("multipart/mixed",
				textPart("text/plain", "first "),
				container("multipart/alternative", textPart("text/plain", "nested")),
			),
			want: "first nested",
		},
		{
			name: "nested text after html goes to plain",
			root: container("multipart/mixed",
				textPart("text/html", "<p>html</p>"),
				container("multipart/alternative", textPart("text/plain", "nested")),
			),
			want: "nested",
		},
		{
			name: "empty nested container is ignored",
			root: container("multipart/mixed",
				container("multipart/related", filePart("image/png", "img", "logo.png", 10)),
				textPart("text/html", "<p>only html</p>"),
			),
			want: "<p>only html</p>",
		},
		{
			name: "non-text leaf with data does not short-circuit",
			root: container("multipart/mixed",
				textPart("application/json", `{"a":1}`),
				textPart("text/plain", "plain"),
			),
			want: "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBodyText(tt.root))
		})
	}
}

func TestExtractAttachments(t *testing.T) {
	t.Run("single attachment", func(t *testing.T) {
		root := container("multipart/mixed",
			textPart("text/plain", "body"),
			filePart("application/pdf", "att1", "document.pdf", 1024),
		)
		got := ExtractAttachments(root)
		assert.Equal(t, []Attachment{{
			AttachmentID: "att1",
			FileName:     "document.pdf",
			MimeType:     "application/pdf",
			Size:         1024,
		}}, got)
	})

	t.Run("attachment id without name is dropped", func(t *testing.T) {
		root := &Part{MimeType: "application/octet-stream", Body: Body{AttachmentID: "att1"}}
		got := ExtractAttachments(root)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("image leaf without name", func(t *testing.T) {
		got := ExtractAttachments(textPart("image/png", "pixels"))
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("filename without attachment id is not an attachment", func(t *testing.T) {
		part := textPart("text/plain", "inline")
		part.Filename = "inline.txt"
		assert.Empty(t, ExtractAttachments(part))
	})

	t.Run("name resolved from headers", func(t *testing.T) {
		part := filePart("application/pdf", "att2", "", 99)
		part.Headers = []Header{
			{Name: "Content-Type", Value: `application/pdf; name="other.pdf"`},
			{Name: "Content-Disposition", Value: `attachment; filename="document.pdf"`},
		}
		got := ExtractAttachments(part)
		require.Len(t, got, 1)
		assert.Equal(t, "document.pdf", got[0].FileName)
	})

	t.Run("own filename takes precedence over headers", func(t *testing.T) {
		part := filePart("application/pdf", "att3", "field.pdf", 1)
		part.Headers = []Header{{Name: "Content-Disposition", Value: `attachment; filename="header.pdf"`}}
		got := ExtractAttachments(part)
		require.Len(t, got, 1)
		assert.Equal(t, "field.pdf", got[0].FileName)
	})

	t.Run("nested attachment is found", func(t *testing.T) {
		root := container("multipart/mixed",
			container("multipart/alternative", textPart("text/plain", "text")),
			filePart("application/pdf", "att_nested", "nested.pdf", 2048),
		)
		got := ExtractAttachments(root)
		require.Len(t, got, 1)
		assert.Equal(t, "nested.pdf", got[0].FileName)
		assert.Equal(t, "att_nested", got[0].AttachmentID)
	})

	t.Run("depth-first left-to-right order", func(t *testing.T) {
		root := container("multipart/mixed",
			container("multipart/related",
				filePart("image/png", "a", "a.png", 1),
				container("multipart/mixed", filePart("image/png", "b", "b.png", 2)),
			),
			filePart("image/png", "c", "c.png", 3),
			container("multipart/mixed", filePart("image/png", "d", "d.png", 4)),
		)
		var ids []string
		for _, a := range ExtractAttachments(root) {
			ids = append(ids, a.AttachmentID)
		}
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	})

	t.Run("attachment with children comes before them", func(t *testing.T) {
		parent := filePart("message/rfc822", "outer", "forwarded.eml", 500)
		parent.Parts = []*Part{filePart("image/png", "inner", "inner.png", 5)}

		got := ExtractAttachments(parent)
		require.Len(t, got, 2)
		assert.Equal(t, "outer", got[0].AttachmentID)
		assert.Equal(t, "inner", got[1].AttachmentID)
	})

	t.Run("nil tree", func(t *testing.T) {
		got := ExtractAttachments(nil)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestExtract(t *testing.T) {
	root := container("multipart/mixed",
		container("multipart/alternative",
			textPart("text/plain", "Plain text"),
			textPart("text/html", "<p>HTML text</p>"),
		),
		filePart("application/pdf", "att1", "document.pdf", 1024),
	)

	proj := Extract(root)
	assert.Equal(t, "Plain text", proj.BodyText)
	require.Len(t, proj.Attachments, 1)
	assert.Equal(t, "document.pdf", proj.Attachments[0].FileName)
}

func TestExtract_ConcurrentCallsOnSharedTree(t *testing.T) {
	root := container("multipart/mixed",
		textPart("text/plain", "shared"),
		filePart("image/png", "img", "img.png", 10),
	)

	done := make(chan Projection, 16)
	for range 16 {
		go func() { done <- Extract(root) }()
	}
	for range 16 {
		proj := <-done
		assert.Equal(t, "shared", proj.BodyText)
		assert.Len(t, proj.Attachments, 1)
	}
}
