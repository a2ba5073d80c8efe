// Package clipboard implements the clipboard content model and OS binding
// interface described in spec.md §3 (TransportClipboard).
package clipboard

import (
	"hash/fnv"

	"github.com/tanujdesk/remotedesk/internal/protocol"
)

// Content is the in-process representation of a clipboard update, with a
// hash used purely for dedup/echo suppression (spec.md §3).
type Content struct {
	Type protocol.ClipboardContentType
	Data []byte
	Hash uint64
}

// NewContent computes Hash from Data.
func NewContent(t protocol.ClipboardContentType, data []byte) Content {
	h := fnv.New64a()
	h.Write(data)
	return Content{Type: t, Data: data, Hash: h.Sum64()}
}

// Binding is the OS clipboard primitive (external collaborator, spec.md §1):
// Read snapshots the current system clipboard; Write applies a remote
// update to it.
type Binding interface {
	Read() (Content, error)
	Write(Content) error
}

// Sync deduplicates clipboard updates by content hash before they cross the
// session boundary, preventing a received update from echoing back to its
// sender.
type Sync struct {
	lastHash uint64
	hasLast  bool
}

// ShouldForward reports whether c is new content worth sending, recording
// it as the last-seen hash when it is.
func (s *Sync) ShouldForward(c Content) bool {
	if s.hasLast && s.lastHash == c.Hash {
		return false
	}
	s.hasLast = true
	s.lastHash = c.Hash
	return true
}
