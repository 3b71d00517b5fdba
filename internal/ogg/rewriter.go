package ogg

import (
	"bytes"
	"io"
)

// ReplaceComments rewrites the comment header of an Ogg container
// in place: the first packet carrying the comment signature has its
// payload swapped for a freshly serialized header, and every packet,
// replaced or not, is re-emitted in original order with its original
// serial, granule position and page/stream boundary flags. The encoded
// audio payload passes through untouched.
//
// A container in which no packet qualifies as a comment header yields
// ErrNoCommentHeader; there is nothing to replace, so that track is a
// hard failure rather than a best-effort insertion.
func ReplaceComments(container []byte, comments *CommentHeader) ([]byte, error) {
	reader := NewPacketReader(container)

	var out bytes.Buffer
	writer := NewPacketWriter(&out)

	replaced := false
	for {
		packet, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if !replaced && IsCommentHeader(packet.Data) {
			packet.Data = comments.Marshal()
			replaced = true
		}

		if err := writer.Write(*packet); err != nil {
			return nil, err
		}
	}

	if !replaced {
		return nil, ErrNoCommentHeader
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
