package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

const (
	AccountsURL = "https://accounts.spotify.com/api/token"
	MetadataURL = "https://spclient.wg.spotify.com/metadata/4/"
	UserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:83.0) Gecko/20100101 Firefox/83.0"
)

type Client struct {
	DeviceID    string
	AccessToken string
	HTTP        *req.Client
}

func NewClient(deviceID string) *Client {
	c := &Client{
		DeviceID: deviceID,
		HTTP:     req.NewClient(),
	}

	c.HTTP.SetBaseURL(MetadataURL).
		SetUserAgent(UserAgent).
		SetCommonHeader("Accept", "application/json")

	return c
}

func (c *Client) SetProxy(proxyURL string) error {
	if proxyURL == "" {
		return nil
	}
	// req/v3 handles http, https, socks5 schemes directly
	c.HTTP.SetProxyURL(proxyURL)
	return nil
}

func (c *Client) SetAccessToken(token string) {
	c.AccessToken = token
	c.HTTP.SetCommonBearerAuthToken(token)
}

// Login exchanges username/password for an access token and installs
// it on the client.
func (c *Client) Login(username, password string) (*LoginResponse, error) {
	var result LoginResponse
	resp, err := c.HTTP.R().
		SetFormData(map[string]string{
			"grant_type": "password",
			"username":   username,
			"password":   password,
			"device_id":  c.DeviceID,
		}).
		SetSuccessResult(&result).
		Post(AccountsURL)

	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("login failed: %s", resp.String())
	}

	c.SetAccessToken(result.AccessToken)

	return &result, nil
}

// ValidateToken checks whether the stored access token still works by
// fetching a known public track.
func (c *Client) ValidateToken(ctx context.Context) bool {
	if c.AccessToken == "" {
		return false
	}
	_, err := c.Track(ctx, "4uLU6hMCjMI75M1A2tKUQC")
	return err == nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetSuccessResult(out).
		Get(path)

	if err != nil {
		return err
	}

	if resp.IsError() {
		return errors.New(resp.String())
	}

	return nil
}

// Track fetches the track record for one catalog id.
func (c *Client) Track(ctx context.Context, id string) (*TrackMetadata, error) {
	var result TrackMetadata
	if err := c.get(ctx, "track/"+id, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Album fetches the album record for one catalog id.
func (c *Client) Album(ctx context.Context, id string) (*AlbumMetadata, error) {
	var result AlbumMetadata
	if err := c.get(ctx, "album/"+id, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Playlist fetches the playlist record for one catalog id.
func (c *Client) Playlist(ctx context.Context, id string) (*PlaylistMetadata, error) {
	var result PlaylistMetadata
	if err := c.get(ctx, "playlist/"+id, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Artist fetches the artist record for one catalog id, including its
// album and single groupings.
func (c *Client) Artist(ctx context.Context, id string) (*ArtistMetadata, error) {
	var result ArtistMetadata
	if err := c.get(ctx, "artist/"+id, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
