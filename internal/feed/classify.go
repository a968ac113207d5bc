package feed

import "bytes"

// htmlSniffLen is how much of the payload the classifier inspects.
const htmlSniffLen = 600

// LooksLikeHTML reports whether a fetched payload is an HTML page rather
// than a feed document. It only routes: HTML goes to the link extractor,
// everything else to the tolerant feed parser.
func LooksLikeHTML(data []byte) bool {
	head := data
	if len(head) > htmlSniffLen {
		head = head[:htmlSniffLen]
	}
	head = bytes.ToLower(bytes.TrimSpace(head))
	return bytes.HasPrefix(head, []byte("<!doctype html")) ||
		bytes.HasPrefix(head, []byte("<html")) ||
		bytes.Contains(head, []byte("<html"))
}
