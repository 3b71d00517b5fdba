package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// commentSignature tags a packet payload as a Vorbis comment header.
var commentSignature = []byte("\x03vorbis")

// Tag is one KEY=VALUE comment entry.
type Tag struct {
	Key   string
	Value string
}

// CommentHeader is the text-tag block of a Vorbis stream: a vendor
// string plus an ordered sequence of tags. The same key may repeat
// (one ARTIST entry per contributing artist), so this is an ordered
// multimap, not a unique-key mapping. Serialization preserves order.
type CommentHeader struct {
	Vendor string
	Tags   []Tag
}

// Add appends a tag, keeping insertion order. Empty values are skipped.
func (h *CommentHeader) Add(key, value string) {
	if value == "" {
		return
	}
	h.Tags = append(h.Tags, Tag{Key: strings.ToUpper(key), Value: value})
}

// Get returns the first value stored under key, if any.
func (h *CommentHeader) Get(key string) (string, bool) {
	key = strings.ToUpper(key)
	for _, t := range h.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// IsCommentHeader reports whether a packet payload carries the comment
// header signature. Detection is deliberately looser than parsing: a
// damaged comment packet is still the packet to replace.
func IsCommentHeader(data []byte) bool {
	return bytes.HasPrefix(data, commentSignature)
}

// Marshal serializes the header: signature, little-endian length-prefixed
// vendor string, little-endian tag count, length-prefixed "KEY=value"
// entries, and the closing framing byte. Readers depend on this exact
// layout; a drift here corrupts every output file.
func (h *CommentHeader) Marshal() []byte {
	buf := new(bytes.Buffer)

	buf.Write(commentSignature)

	binary.Write(buf, binary.LittleEndian, uint32(len(h.Vendor)))
	buf.WriteString(h.Vendor)

	binary.Write(buf, binary.LittleEndian, uint32(len(h.Tags)))
	for _, t := range h.Tags {
		entry := t.Key + "=" + t.Value
		binary.Write(buf, binary.LittleEndian, uint32(len(entry)))
		buf.WriteString(entry)
	}

	buf.WriteByte(0x01) // framing bit

	return buf.Bytes()
}

// ParseCommentHeader parses a comment header payload.
func ParseCommentHeader(data []byte) (*CommentHeader, error) {
	if !IsCommentHeader(data) {
		return nil, fmt.Errorf("not a comment header packet")
	}
	buf := bytes.NewReader(data[len(commentSignature):])

	var vendorLen uint32
	if err := binary.Read(buf, binary.LittleEndian, &vendorLen); err != nil {
		return nil, fmt.Errorf("failed to read vendor length: %w", err)
	}
	vendorBytes := make([]byte, vendorLen)
	if _, err := io.ReadFull(buf, vendorBytes); err != nil {
		return nil, fmt.Errorf("failed to read vendor string: %w", err)
	}

	var count uint32
	if err := binary.Read(buf, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read tag count: %w", err)
	}

	header := &CommentHeader{Vendor: string(vendorBytes)}
	for i := uint32(0); i < count; i++ {
		var entryLen uint32
		if err := binary.Read(buf, binary.LittleEndian, &entryLen); err != nil {
			return nil, fmt.Errorf("failed to read tag length at index %d: %w", i, err)
		}
		entry := make([]byte, entryLen)
		if _, err := io.ReadFull(buf, entry); err != nil {
			return nil, fmt.Errorf("failed to read tag at index %d: %w", i, err)
		}
		key, value, found := strings.Cut(string(entry), "=")
		if !found {
			// tolerated: a bare entry becomes a valueless key
			value = ""
		}
		header.Tags = append(header.Tags, Tag{Key: key, Value: value})
	}

	// the framing bit must be present and set
	framing, err := buf.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("failed to read framing byte: %w", err)
	}
	if framing&0x01 == 0 {
		return nil, fmt.Errorf("framing bit not set")
	}

	return header, nil
}
