// Package spotify is the thin client for the two Spotify endpoints this
// system consumes: batch artist metadata and per-artist related artists.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amonks/galaxy/data"
	"github.com/amonks/galaxy/limiter"
	"github.com/amonks/galaxy/request"
)

// New creates a new Spotify client with the given clientID and clientSecret.
// Rate-limit state persists across process restarts via the next-req file.
func New(clientID, clientSecret string) *Client {
	client := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		lim:          limiter.New("next-req", time.Second/10),
		delay:        time.Second / 10,
	}
	if err := client.lim.Load(); err != nil {
		panic(err)
	}
	return client
}

type Client struct {
	mu sync.Mutex

	clientID     string
	clientSecret string

	lim   *limiter.Limiter
	delay time.Duration

	accessToken string
	expiresAt   time.Time
}

// FetchArtists fetches metadata for up to 50 artists per request, batching
// as necessary.
func (spo *Client) FetchArtists(ctx context.Context, spotifyIDs []string) ([]data.Artist, error) {
	var artists []data.Artist
	for len(spotifyIDs) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := spotifyIDs
		if len(batch) > 50 {
			batch = batch[:50]
		}
		spotifyIDs = spotifyIDs[len(batch):]

		query := url.Values{}
		query.Add("ids", strings.Join(batch, ","))

		resp, err := spo.get(ctx, "https://api.spotify.com/v1/artists", query)
		if err != nil {
			return nil, err
		}

		var results artistsResults
		dec := json.NewDecoder(resp)
		decodeErr := dec.Decode(&results)
		resp.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("artists decode error: %w", decodeErr)
		}

		for _, item := range results.Artists {
			artists = append(artists, data.Artist{
				SpotifyID:  item.ID,
				Name:       item.Name,
				Followers:  item.Followers.Total,
				Popularity: item.Popularity,
			})
		}
	}
	return artists, nil
}

type artistsResults struct {
	Artists []struct {
		ID        string
		Name      string
		Followers struct {
			Total int64
		}
		Popularity int64
	}
}

// FetchRelatedArtists fetches the artists Spotify considers related to the
// given one.
func (spo *Client) FetchRelatedArtists(ctx context.Context, spotifyID string) ([]data.Artist, error) {
	resp, err := spo.get(ctx, fmt.Sprintf("https://api.spotify.com/v1/artists/%s/related-artists", spotifyID), nil)
	if err != nil {
		return nil, err
	}

	defer resp.Close()
	var results artistsResults
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&results); err != nil {
		return nil, fmt.Errorf("related artists decode error: %w", err)
	}

	artists := make([]data.Artist, len(results.Artists))
	for i, item := range results.Artists {
		artists[i] = data.Artist{
			SpotifyID:  item.ID,
			Name:       item.Name,
			Followers:  item.Followers.Total,
			Popularity: item.Popularity,
		}
	}
	return artists, nil
}

// get does a rate-limited authenticated GET. On a 429 it waits out the
// Retry-After header and retries, so a rate-limited call won't error but
// might take a long time.
func (spo *Client) get(ctx context.Context, baseURL string, query url.Values) (io.ReadCloser, error) {
	spo.mu.Lock()
	defer spo.mu.Unlock()

retry:
	if err := spo.lim.Wait(ctx); err != nil {
		return nil, err
	}

	url, _ := url.Parse(baseURL)
	url.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}

	token, err := spo.token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	if resp.StatusCode == 429 {
		spo.delay = 2 * spo.delay
		log.Printf("429; backing off to %s between requests", spo.delay)
		if err := spo.lim.SetNextAt(resp.Header.Get("Retry-After")); err != nil {
			return nil, err
		}
		goto retry
	}
	if err := request.Error(resp); err != nil {
		return nil, fmt.Errorf("fetch error: %w", err)
	}

	spo.lim.DelayBy(spo.delay)

	return resp.Body, nil
}

type tokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (spo *Client) token() (string, error) {
	if spo.accessToken == "" || spo.expiresAt.Before(time.Now().Add(time.Second)) {
		if err := spo.fetchToken(); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Bearer %s", spo.accessToken), nil
}

func (spo *Client) fetchToken() error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	url := "https://accounts.spotify.com/api/token"
	req, err := http.NewRequest("POST", url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	up := fmt.Sprintf("%s:%s", spo.clientID, spo.clientSecret)
	credential := base64.StdEncoding.EncodeToString([]byte(up))
	req.Header.Set("Authorization", fmt.Sprintf("Basic %s", credential))
	req.Header.Set("Content-type", "application/x-www-form-urlencoded")

	requestAt := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	defer resp.Body.Close()
	if err := request.Error(resp); err != nil {
		return fmt.Errorf("token fetch error: %w", err)
	}

	var result tokenResult
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&result); err != nil {
		return fmt.Errorf("token decode error: %w", err)
	}

	spo.accessToken = result.AccessToken
	spo.expiresAt = requestAt.Add(time.Duration(result.ExpiresIn) * time.Second)

	return nil
}
