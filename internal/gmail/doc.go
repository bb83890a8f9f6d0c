// Package gmail provides a read-only client for the Gmail API.
//
// The client covers the retrieval side of the MCP server:
//   - Searching messages with Gmail query syntax
//   - Fetching a message and decoding its headers and body text
//   - Fetching many messages concurrently with partial-failure tolerance
//   - Listing attachments and fetching attachment payloads
//
// Message payloads are converted into mimepart trees with a bounded depth
// and decoded by the mimepart package. Every API call is traced and, when a
// metrics recorder is configured, measured.
//
// Example usage:
//
//	client, err := gmail.NewClient(ctx, httpClient, gmail.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	results, err := client.SearchMessages(ctx, "from:alice has:attachment", 10)
//	if err != nil {
//	    return err
//	}
//	for _, r := range results {
//	    msg, err := client.GetMessage(ctx, r.MessageID)
//	    ...
//	}
package gmail
