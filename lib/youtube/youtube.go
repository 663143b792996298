// Copyright (C) 2023 The Clipcast Authors.
//
// This file is part of Clipcast.
//
// Clipcast is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Clipcast is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Clipcast.  If not, see <https://www.gnu.org/licenses/>.

// Package youtube wraps the YouTube Data API v3 for the operations the
// clipper needs: recent uploads for polling, channel metadata, video
// statistics, OAuth token exchange and refresh, and resumable upload.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/lib/date"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

type YouTube struct {
	config config.YouTubeAPIConfig
}

func NewYouTube(config *config.Config) *YouTube {
	return &YouTube{config: config.YouTube}
}

type Video struct {
	ID          string
	Title       string
	Description string
	PublishedAt time.Time
	Duration    time.Duration
	ChannelID   string
}

type Channel struct {
	ID              string
	Title           string
	ThumbnailURL    string
	SubscriberCount int64
}

type Stats struct {
	Views    int64
	Likes    int64
	Comments int64
}

type Upload struct {
	Path        string
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
}

// readonly builds a service for public data using the API key.
func (y *YouTube) readonly(ctx context.Context) (*yt.Service, error) {
	if y.config.Key == "" {
		return nil, errors.New("no youtube api key")
	}
	return yt.NewService(ctx, option.WithAPIKey(y.config.Key))
}

// authorized builds a service with a bearer token. The token is assumed
// fresh; callers refresh and persist before uploading.
func (y *YouTube) authorized(ctx context.Context, accessToken string) (*yt.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return yt.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, source)))
}

func (y *YouTube) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     y.config.ClientID,
		ClientSecret: y.config.ClientSecret,
		RedirectURL:  "http://localhost:8080/callback",
		Scopes: []string{
			yt.YoutubeUploadScope,
			yt.YoutubeReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}
}

// RecentVideos lists a channel's most recent uploads, newest first.
// Durations come from a second videos.list call since search results
// do not carry contentDetails.
func (y *YouTube) RecentVideos(ctx context.Context, channelID string, limit int64) ([]Video, error) {
	service, err := y.readonly(ctx)
	if err != nil {
		return nil, err
	}
	response, err := service.Search.List([]string{"id", "snippet"}).
		ChannelId(channelID).
		Type("video").
		Order("date").
		MaxResults(limit).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, item := range response.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	details, err := service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(strings.Join(ids, ",")).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	durations := make(map[string]time.Duration)
	for _, v := range details.Items {
		if v.ContentDetails != nil {
			durations[v.Id] = date.ParseDuration(v.ContentDetails.Duration)
		}
	}

	// preserve search order, newest first
	var videos []Video
	for _, item := range response.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		videos = append(videos, Video{
			ID:          item.Id.VideoId,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			PublishedAt: date.ParseRFC3339(item.Snippet.PublishedAt),
			Duration:    durations[item.Id.VideoId],
			ChannelID:   item.Snippet.ChannelId,
		})
	}
	return videos, nil
}

// ChannelInfo resolves a channel by id or handle.
func (y *YouTube) ChannelInfo(ctx context.Context, ref string) (Channel, error) {
	service, err := y.readonly(ctx)
	if err != nil {
		return Channel{}, err
	}
	call := service.Channels.List([]string{"snippet", "statistics"})
	if strings.HasPrefix(ref, "UC") {
		call = call.Id(ref)
	} else {
		call = call.ForHandle(strings.TrimPrefix(ref, "@"))
	}
	response, err := call.Context(ctx).Do()
	if err != nil {
		return Channel{}, err
	}
	if len(response.Items) == 0 {
		return Channel{}, fmt.Errorf("channel not found: %s", ref)
	}
	item := response.Items[0]
	channel := Channel{
		ID:    item.Id,
		Title: item.Snippet.Title,
	}
	if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
		channel.ThumbnailURL = item.Snippet.Thumbnails.High.Url
	} else if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
		channel.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
	}
	if item.Statistics != nil {
		channel.SubscriberCount = int64(item.Statistics.SubscriberCount)
	}
	return channel, nil
}

// VideoStats returns view/like/comment counts keyed by video id.
// The videos.list id parameter takes at most 50 ids per call.
func (y *YouTube) VideoStats(ctx context.Context, videoIDs []string) (map[string]Stats, error) {
	service, err := y.readonly(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]Stats)
	for len(videoIDs) > 0 {
		chunk := videoIDs
		if len(chunk) > 50 {
			chunk = chunk[:50]
		}
		videoIDs = videoIDs[len(chunk):]
		response, err := service.Videos.List([]string{"statistics"}).
			Id(strings.Join(chunk, ",")).
			Context(ctx).Do()
		if err != nil {
			return stats, err
		}
		for _, v := range response.Items {
			if v.Statistics == nil {
				continue
			}
			stats[v.Id] = Stats{
				Views:    int64(v.Statistics.ViewCount),
				Likes:    int64(v.Statistics.LikeCount),
				Comments: int64(v.Statistics.CommentCount),
			}
		}
	}
	return stats, nil
}

// AuthURL returns the consent URL for linking a destination account.
func (y *YouTube) AuthURL(state string) string {
	return y.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens.
func (y *YouTube) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := y.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		return nil, errors.New("no refresh token granted")
	}
	return token, nil
}

// Refresh exchanges a refresh token for a fresh access token. The
// returned expiry is computed from the grant's expires_in.
func (y *YouTube) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := y.oauthConfig().TokenSource(ctx,
		&oauth2.Token{RefreshToken: refreshToken})
	return source.Token()
}

// UploadVideo uploads the file and returns the new video id.
func (y *YouTube) UploadVideo(ctx context.Context, accessToken string, upload Upload) (string, error) {
	service, err := y.authorized(ctx, accessToken)
	if err != nil {
		return "", err
	}
	file, err := os.Open(upload.Path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	video := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       upload.Title,
			Description: upload.Description,
			Tags:        upload.Tags,
			CategoryId:  upload.CategoryID,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus: upload.Privacy,
		},
	}
	response, err := service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(file).
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return response.Id, nil
}
