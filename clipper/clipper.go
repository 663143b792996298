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

// Package clipper is the automated short-form clip pipeline. The
// monitor discovers new uploads on watched source channels and turns
// them into pending jobs, one per active linkage. The dispatcher claims
// pending jobs and drives each one through download, vectorization,
// AI clip selection and review, and publishing to the linkage's
// destination account. All cross-task coordination flows through the
// relational store.
package clipper

import (
	"context"
	"fmt"

	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/lib/bucket"
	"github.com/defsub/clipcast/lib/claude"
	"github.com/defsub/clipcast/lib/ffmpeg"
	"github.com/defsub/clipcast/lib/gemini"
	"github.com/defsub/clipcast/lib/openai"
	"github.com/defsub/clipcast/lib/qdrant"
	"github.com/defsub/clipcast/lib/voyage"
	"github.com/defsub/clipcast/lib/youtube"
	"github.com/defsub/clipcast/lib/ytdlp"
	"github.com/defsub/clipcast/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	SettingEnabled    = "clipping_enabled"
	SettingAIProvider = "ai_provider"

	watchURL = "https://www.youtube.com/watch?v=%s"
)

// Downloader fetches upstream videos. See lib/ytdlp.
type Downloader interface {
	Check() error
	Download(ctx context.Context, url, outputPath string) (ytdlp.Result, error)
}

// Trimmer renders clip files from a source video. See lib/ffmpeg.
type Trimmer interface {
	Trim(ctx context.Context, inputPath, outputPath string, start, end float64) error
	Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error)
}

// TextGenerator is one configured LLM provider.
type TextGenerator interface {
	Name() string
	Configured() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into vectors for the vector store.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore holds the per-video analysis records. See lib/qdrant.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []qdrant.Point) error
	Scroll(ctx context.Context, filter *qdrant.Filter, limit int) ([]qdrant.ScrolledPoint, error)
	DeleteByFilter(ctx context.Context, filter *qdrant.Filter) error
}

// Platform is the destination video platform. See lib/youtube.
type Platform interface {
	RecentVideos(ctx context.Context, channelID string, limit int64) ([]youtube.Video, error)
	ChannelInfo(ctx context.Context, ref string) (youtube.Channel, error)
	VideoStats(ctx context.Context, videoIDs []string) (map[string]youtube.Stats, error)
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	UploadVideo(ctx context.Context, accessToken string, upload youtube.Upload) (string, error)
}

type Clipper struct {
	config     *config.Config
	db         *gorm.DB
	downloader Downloader
	trimmer    Trimmer
	embedder   Embedder
	generators []TextGenerator
	platform   Platform
	vectors    VectorStore
	events     *Events
	buckets    []bucket.Bucket
}

func NewClipper(config *config.Config) *Clipper {
	c := &Clipper{
		config:     config,
		downloader: ytdlp.NewDownloader(config),
		trimmer:    ffmpeg.NewFFmpeg(config),
		platform:   youtube.NewYouTube(config),
		vectors:    qdrant.NewQdrant(config),
		events:     NewEvents(config),
	}
	// higher-cost providers first
	for _, g := range []TextGenerator{
		claude.NewClaude(config),
		gemini.NewGemini(config),
		openai.NewOpenAI(config),
	} {
		if g.Configured() {
			c.generators = append(c.generators, g)
		}
	}
	if config.AI.Voyage.Key != "" {
		c.embedder = voyage.NewVoyage(config)
	} else if config.AI.OpenAI.Key != "" {
		c.embedder = openai.NewOpenAI(config)
	} else if config.AI.Gemini.Key != "" {
		c.embedder = gemini.NewGemini(config)
	}
	return c
}

func (c *Clipper) Open() (err error) {
	err = c.openDB()
	if err != nil {
		return
	}
	c.buckets, err = bucket.OpenMedia(c.config.Buckets, config.MediaClips)
	if err != nil {
		// archive is optional; the pipeline runs without it
		log.Printf("clip archive unavailable: %s\n", err)
		c.buckets = nil
		err = nil
	}
	return
}

func (c *Clipper) Close() {
	c.closeDB()
	c.events.Close()
}

// Enabled checks the runtime switch; absent means disabled.
func (c *Clipper) Enabled() bool {
	return c.Setting(SettingEnabled) == "true"
}

// Check verifies the external tools are present before any job work.
func (c *Clipper) Check() error {
	if err := c.downloader.Check(); err != nil {
		return fmt.Errorf("%w: %s", ErrDownloaderMissing, err)
	}
	if f, ok := c.trimmer.(*ffmpeg.FFmpeg); ok {
		return f.Check()
	}
	return nil
}

func videoURL(videoID string) string {
	return fmt.Sprintf(watchURL, videoID)
}
