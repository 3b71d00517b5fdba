package api

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

const (
	KeyManagerURL     = "https://spclient.wg.spotify.com/audio-key/v1/"
	StorageResolveURL = "https://spclient.wg.spotify.com/storage-resolve/files/audio/interactive/"
)

// audioIV is the fixed initial counter value shared by every encrypted
// audio file; the per-file AES-128 key comes from the key manager.
var audioIV = []byte{
	0x72, 0xe0, 0x67, 0xfb, 0xdd, 0xcb, 0xcf, 0x77,
	0xeb, 0xe8, 0xbc, 0x64, 0x3f, 0x63, 0x0d, 0x93,
}

type audioKeyResponse struct {
	Key string `json:"key"` // base64
}

type storageResolveResponse struct {
	Result string   `json:"result"`
	CDNURL []string `json:"cdnurl"`
}

// AudioKey fetches the decryption key for one file of one track.
func (c *Client) AudioKey(ctx context.Context, trackID string, fileID FileID) ([]byte, error) {
	var result audioKeyResponse
	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetQueryParam("track", trackID).
		SetSuccessResult(&result).
		Get(KeyManagerURL + string(fileID))

	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, errors.New(resp.String())
	}

	key, err := base64.StdEncoding.DecodeString(result.Key)
	if err != nil {
		return nil, fmt.Errorf("malformed audio key: %w", err)
	}
	if len(key) != 16 {
		return nil, fmt.Errorf("audio key has %d bytes, want 16", len(key))
	}
	return key, nil
}

// resolveStorage returns the CDN URL for a file id.
func (c *Client) resolveStorage(ctx context.Context, fileID FileID) (string, error) {
	var result storageResolveResponse
	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetSuccessResult(&result).
		Get(StorageResolveURL + string(fileID))

	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", errors.New(resp.String())
	}
	if len(result.CDNURL) == 0 {
		return "", fmt.Errorf("no CDN location for file %s", fileID)
	}
	return result.CDNURL[0], nil
}

// AudioFile fetches the encrypted audio for a track's file id and
// returns the decrypted container bytes. onProgress, if non-nil, is
// called with downloaded and total byte counts.
func (c *Client) AudioFile(ctx context.Context, trackID string, fileID FileID, onProgress func(current, total int64)) ([]byte, error) {
	key, err := c.AudioKey(ctx, trackID, fileID)
	if err != nil {
		return nil, fmt.Errorf("audio key exchange failed: %w", err)
	}

	cdnURL, err := c.resolveStorage(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("storage resolve failed: %w", err)
	}

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetDownloadCallback(func(info req.DownloadInfo) {
			if onProgress != nil && info.Response.ContentLength > 0 {
				onProgress(info.DownloadedSize, info.Response.ContentLength)
			}
		}).
		Get(cdnURL)

	if err != nil {
		return nil, err
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("http error: %s", resp.Status)
	}

	return decryptAudio(resp.Bytes(), key)
}

// decryptAudio applies AES-128-CTR over the fetched payload with the
// shared initial counter.
func decryptAudio(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.NewCTR(block, audioIV).XORKeyStream(out, data)
	return out, nil
}
