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

package clipper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/defsub/clipcast/lib/str"
	"github.com/defsub/clipcast/lib/youtube"
	"github.com/defsub/clipcast/log"
)

const (
	// ShortsTag requests short-form treatment by the platform.
	ShortsTag = "#Shorts"

	shortsURL = "https://youtube.com/shorts/%s"

	// Entertainment
	uploadCategory = "24"
	uploadPrivacy  = "public"

	maxTitleRunes = 100
	maxTags       = 10

	// tokens must outlive the upload by this much before a refresh
	// is forced
	tokenWindow = 5 * time.Minute
)

// OptimizeTitle prepares a clip title for short-form upload: trim, tag
// with the shorts marker if absent, and cap at the platform's 100 rune
// title limit with a trailing ellipsis.
func OptimizeTitle(title string) string {
	optimized := strings.TrimSpace(title)
	if containsShortsTag(optimized) == false {
		optimized += " " + ShortsTag
	}
	if str.RuneCount(optimized) > maxTitleRunes {
		optimized = str.TruncateRunes(optimized, maxTitleRunes-3) + "..."
	}
	return optimized
}

// FormatDescription assembles the upload description: the AI text, the
// shorts marker if absent, and up to ten tags rendered as hashtags.
func FormatDescription(description string, tags []string) string {
	var formatted strings.Builder
	formatted.WriteString(strings.TrimSpace(description))
	formatted.WriteString("\n\n")
	if containsShortsTag(description) == false {
		formatted.WriteString(ShortsTag + " ")
	}
	count := 0
	for _, tag := range tags {
		if count == maxTags {
			break
		}
		tag = hashTag(tag)
		if tag == "#" {
			continue
		}
		formatted.WriteString(tag + " ")
		count++
	}
	return strings.TrimRight(formatted.String(), " ")
}

func containsShortsTag(s string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(ShortsTag))
}

// hashTag strips whitespace and leading # marks before re-prefixing.
func hashTag(tag string) string {
	var b strings.Builder
	b.WriteString("#")
	for _, r := range tag {
		if r == '#' || r == ' ' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ensureValidToken returns an access token good for more than the
// token window, refreshing and persisting the (token, expiry) pair
// first when needed. A rejected refresh flags the account for reauth.
func (c *Clipper) ensureValidToken(ctx context.Context,
	account *DestinationAccount) (string, error) {
	if time.Now().Add(tokenWindow).Before(account.TokenExpiry) {
		return account.AccessToken, nil
	}
	log.Printf("account %s token expiring, refreshing\n", account.Name)
	token, err := c.platform.Refresh(ctx, account.RefreshToken)
	if err != nil {
		c.flagReauth(account.ID)
		return "", fmt.Errorf("%w: %s", ErrTokenRefreshFailed, err)
	}
	err = c.updateAccountToken(account.ID, token.AccessToken, token.Expiry.UTC())
	if err != nil {
		return "", err
	}
	account.AccessToken = token.AccessToken
	account.TokenExpiry = token.Expiry.UTC()
	account.RequiresReauth = false
	return account.AccessToken, nil
}

// publishClip uploads one rendered clip to the destination account and
// records the outcome on the clip row. The returned error is per-clip;
// the caller continues with the next clip.
func (c *Clipper) publishClip(ctx context.Context, account *DestinationAccount,
	clip ExtractedClip) error {
	accessToken, err := c.ensureValidToken(ctx, account)
	if err != nil {
		c.markClipFailed(clip.ID, err)
		return err
	}

	tags := clip.TagList()
	upload := youtube.Upload{
		Path:        clip.LocalClipPath,
		Title:       OptimizeTitle(clip.Title),
		Description: FormatDescription(clip.Description, tags),
		Tags:        tags,
		CategoryID:  uploadCategory,
		Privacy:     uploadPrivacy,
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Clipper.UploadTimeout)
	defer cancel()
	videoID, err := c.platform.UploadVideo(ctx, accessToken, upload)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrUploadFailed, err)
		c.markClipFailed(clip.ID, err)
		return err
	}

	url := fmt.Sprintf(shortsURL, videoID)
	err = c.markClipPublished(clip.ID, videoID, url)
	if err != nil {
		return err
	}
	log.Printf("published clip %d as %s\n", clip.ID, url)
	return nil
}
