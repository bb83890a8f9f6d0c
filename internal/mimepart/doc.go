// Package mimepart decodes the MIME part tree of a Gmail message into the two
// projections the MCP tools expose: a single body text and an ordered list of
// attachment descriptors.
//
// The package is pure. It performs no I/O, holds no shared state, and never
// fails on malformed content: undecodable bodies become empty strings and
// undecodable filenames are returned as-is. Bounding the depth of untrusted
// trees is the job of the code that builds them (see ParseJSON and
// gmail.PartFromMessagePart), which fails with ErrTooDeep.
//
// Body selection prefers text/plain over text/html anywhere in the tree:
//
//	root, err := mimepart.ParseJSON(payload, mimepart.DefaultMaxDepth)
//	if err != nil {
//	    return err
//	}
//	text := mimepart.ExtractBodyText(root)
//	attachments := mimepart.ExtractAttachments(root)
package mimepart
