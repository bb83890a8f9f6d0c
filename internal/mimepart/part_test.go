package mimepart

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gmailPayload = `{
  "partId": "",
  "mimeType": "multipart/mixed",
  "filename": "",
  "headers": [{"name": "Content-Type", "value": "multipart/mixed; boundary=x"}],
  "body": {"size": 0},
  "parts": [
    {
      "partId": "0",
      "mimeType": "multipart/alternative",
      "body": {"size": 0},
      "parts": [
        {"partId": "0.0", "mimeType": "text/plain", "body": {"size": 5, "data": "SGVsbG8"}},
        {"partId": "0.1", "mimeType": "text/html", "body": {"size": 12, "data": "PGI-SGVsbG88L2I-"}}
      ]
    },
    {
      "partId": "1",
      "mimeType": "application/pdf",
      "filename": "",
      "headers": [{"name": "Content-Disposition", "value": "attachment; filename=\"report.pdf\""}],
      "body": {"attachmentId": "ANGjdJ8", "size": 4096}
    }
  ]
}`

func TestParseJSON(t *testing.T) {
	root, err := ParseJSON([]byte(gmailPayload), DefaultMaxDepth)
	require.NoError(t, err)

	assert.Equal(t, "multipart/mixed", root.MimeType)
	require.Len(t, root.Parts, 2)
	assert.Equal(t, "SGVsbG8", root.Parts[0].Parts[0].Body.Data)
	assert.Equal(t, "ANGjdJ8", root.Parts[1].Body.AttachmentID)
	assert.Equal(t, int64(4096), root.Parts[1].Body.Size)
	assert.Equal(t, "Content-Disposition", root.Parts[1].Headers[0].Name)

	proj := Extract(root)
	assert.Equal(t, "Hello", proj.BodyText)
	assert.Equal(t, []Attachment{{
		AttachmentID: "ANGjdJ8",
		FileName:     "report.pdf",
		MimeType:     "application/pdf",
		Size:         4096,
	}}, proj.Attachments)
}

func TestParseJSON_MissingFieldsDefault(t *testing.T) {
	root, err := ParseJSON([]byte(`{"mimeType":"text/plain"}`), 0)
	require.NoError(t, err)
	assert.True(t, root.IsLeaf())
	assert.Equal(t, Body{}, root.Body)
	assert.Equal(t, "", ExtractBodyText(root))
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := ParseJSON([]byte(`{"mimeType":`), DefaultMaxDepth)
	assert.Error(t, err)

	_, err = ParseJSON([]byte(`{"mimeType":"multipart/mixed","parts":[null]}`), DefaultMaxDepth)
	assert.Error(t, err)
}

func nestedJSON(depth int) string {
	var b strings.Builder
	for range depth {
		b.WriteString(`{"mimeType":"multipart/mixed","parts":[`)
	}
	b.WriteString(`{"mimeType":"text/plain","body":{"data":"ZGVlcA"}}`)
	for range depth {
		b.WriteString(`]}`)
	}
	return b.String()
}

func TestParseJSON_DepthLimit(t *testing.T) {
	root, err := ParseJSON([]byte(nestedJSON(3)), 3)
	require.NoError(t, err)
	assert.Equal(t, "deep", ExtractBodyText(root))

	_, err = ParseJSON([]byte(nestedJSON(4)), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooDeep))
}

func TestCheckDepth(t *testing.T) {
	assert.NoError(t, CheckDepth(&Part{MimeType: "text/plain"}, 0))
	assert.Error(t, CheckDepth(nil, 1))

	leaf := &Part{MimeType: "text/plain"}
	root := &Part{Parts: []*Part{{Parts: []*Part{leaf}}}}
	assert.NoError(t, CheckDepth(root, 2))
	assert.ErrorIs(t, CheckDepth(root, 1), ErrTooDeep)
}
