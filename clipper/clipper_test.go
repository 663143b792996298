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
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/lib/ffmpeg"
	"github.com/defsub/clipcast/lib/qdrant"
	"github.com/defsub/clipcast/lib/youtube"
	"github.com/defsub/clipcast/lib/ytdlp"
	"golang.org/x/oauth2"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Clipper = config.ClipperConfig{
		DB: config.DatabaseConfig{
			Driver: "sqlite3",
			Source: filepath.Join(dir, "clipcast.db"),
		},
		DownloadDir:       filepath.Join(dir, "downloads"),
		OutputDir:         filepath.Join(dir, "outputs"),
		ImageCacheDir:     filepath.Join(dir, "imagecache"),
		Workers:           2,
		PollLimit:         10,
		RecentLimit:       10,
		PollingInterval:   30 * time.Minute,
		MinSourceDuration: 3 * time.Minute,
		ScratchRetention:  time.Hour,
		DownloadTimeout:   time.Minute,
		IndexTimeout:      time.Minute,
		SelectTimeout:     time.Minute,
		UploadTimeout:     time.Minute,
		StatsInterval:     time.Hour,
		SearchLimit:       100,
	}
	cfg.Search.BleveDir = dir
	return cfg
}

// testClipper builds a Clipper over a scratch sqlite database with all
// collaborators stubbed.
func testClipper(t *testing.T) (*Clipper, *stubs) {
	cfg := testConfig(t)
	s := newStubs()
	c := &Clipper{
		config:     cfg,
		downloader: s.downloader,
		trimmer:    s.trimmer,
		embedder:   s.embedder,
		generators: []TextGenerator{s.generator},
		platform:   s.platform,
		vectors:    s.vectors,
		events:     NewEvents(cfg),
	}
	if err := c.openDB(); err != nil {
		t.Fatalf("openDB %s\n", err)
	}
	t.Cleanup(c.closeDB)
	c.UpdateSetting(SettingEnabled, "true")
	return c, s
}

type stubs struct {
	downloader *stubDownloader
	trimmer    *stubTrimmer
	embedder   *stubEmbedder
	generator  *stubGenerator
	platform   *stubPlatform
	vectors    *stubVectors
}

func newStubs() *stubs {
	return &stubs{
		downloader: &stubDownloader{duration: 600},
		trimmer:    &stubTrimmer{duration: 600},
		embedder:   &stubEmbedder{},
		generator:  &stubGenerator{name: "stub"},
		platform: &stubPlatform{
			uploadID: "up0",
			token: &oauth2.Token{
				AccessToken: "A2",
				Expiry:      time.Now().Add(time.Hour),
			},
		},
		vectors: &stubVectors{},
	}
}

type stubDownloader struct {
	checkErr    error
	downloadErr error
	duration    float64
	calls       int
}

func (d *stubDownloader) Check() error {
	return d.checkErr
}

func (d *stubDownloader) Download(ctx context.Context, url, outputPath string) (ytdlp.Result, error) {
	d.calls++
	if d.downloadErr != nil {
		return ytdlp.Result{}, d.downloadErr
	}
	return ytdlp.Result{
		Path:     outputPath,
		Title:    "stub video",
		Duration: d.duration,
	}, nil
}

type stubTrimmer struct {
	duration float64
	trimErr  error
	failN    map[int]bool // 1-based render index to fail
	trims    int
}

func (f *stubTrimmer) Trim(ctx context.Context, inputPath, outputPath string, start, end float64) error {
	f.trims++
	if f.trimErr != nil {
		return f.trimErr
	}
	if f.failN[f.trims] {
		return ErrTrimFailed
	}
	return nil
}

func (f *stubTrimmer) Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error) {
	var result ffmpeg.ProbeResult
	result.Format.Duration = fmt.Sprintf("%f", f.duration)
	return result, nil
}

type stubEmbedder struct {
	err error
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, qdrant.VectorSize)
	}
	return vectors, nil
}

// stubGenerator answers selection prompts with selectResponse and
// review prompts with reviewResponse.
type stubGenerator struct {
	name           string
	selectResponse string
	reviewResponse string
	err            error
	reviewErr      error
	reviewErrN     int // review calls that fail; 0 with reviewErr means all
	calls          int
	reviews        int
	prompts        []string
}

func (g *stubGenerator) Name() string     { return g.name }
func (g *stubGenerator) Configured() bool { return true }

func (g *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if strings.HasPrefix(prompt, "Review") {
		g.reviews++
		if g.reviewErr != nil &&
			(g.reviewErrN == 0 || g.reviews <= g.reviewErrN) {
			return "", g.reviewErr
		}
		return g.reviewResponse, nil
	}
	return g.selectResponse, nil
}

type stubPlatform struct {
	videos     []youtube.Video
	videosErr  error
	channel    youtube.Channel
	stats      map[string]youtube.Stats
	token      *oauth2.Token
	refreshErr error
	refreshes  int
	uploadID   string
	uploadErr  error
	uploads    []youtube.Upload
	uploadTok  []string
}

func (p *stubPlatform) RecentVideos(ctx context.Context, channelID string, limit int64) ([]youtube.Video, error) {
	if p.videosErr != nil {
		return nil, p.videosErr
	}
	return p.videos, nil
}

func (p *stubPlatform) ChannelInfo(ctx context.Context, ref string) (youtube.Channel, error) {
	return p.channel, nil
}

func (p *stubPlatform) VideoStats(ctx context.Context, videoIDs []string) (map[string]youtube.Stats, error) {
	return p.stats, nil
}

func (p *stubPlatform) AuthURL(state string) string {
	return "https://example.com/auth?state=" + state
}

func (p *stubPlatform) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.token, nil
}

func (p *stubPlatform) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	p.refreshes++
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return p.token, nil
}

func (p *stubPlatform) UploadVideo(ctx context.Context, accessToken string, upload youtube.Upload) (string, error) {
	if p.uploadErr != nil {
		return "", p.uploadErr
	}
	p.uploads = append(p.uploads, upload)
	p.uploadTok = append(p.uploadTok, accessToken)
	return fmt.Sprintf("%s_%d", p.uploadID, len(p.uploads)), nil
}

// stubVectors is an in-memory vector store keyed by point id.
type stubVectors struct {
	mu     sync.Mutex
	points map[string]qdrant.Point
	err    error
}

func (v *stubVectors) EnsureCollection(ctx context.Context) error {
	return v.err
}

func (v *stubVectors) Upsert(ctx context.Context, points []qdrant.Point) error {
	if v.err != nil {
		return v.err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.points == nil {
		v.points = make(map[string]qdrant.Point)
	}
	for _, p := range points {
		v.points[p.ID] = p
	}
	return nil
}

func (v *stubVectors) Scroll(ctx context.Context, filter *qdrant.Filter, limit int) ([]qdrant.ScrolledPoint, error) {
	if v.err != nil {
		return nil, v.err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	var result []qdrant.ScrolledPoint
	for id, p := range v.points {
		if matches(filter, p.Payload) {
			result = append(result, qdrant.ScrolledPoint{ID: id, Payload: p.Payload})
		}
	}
	return result, nil
}

func (v *stubVectors) DeleteByFilter(ctx context.Context, filter *qdrant.Filter) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, p := range v.points {
		if matches(filter, p.Payload) {
			delete(v.points, id)
		}
	}
	return nil
}

func matches(filter *qdrant.Filter, payload map[string]interface{}) bool {
	if filter == nil {
		return true
	}
	for _, cond := range filter.Must {
		if payload[cond.Key] != cond.Match.Value {
			return false
		}
	}
	return true
}

// fixtures

func testChannel(t *testing.T, c *Clipper, channelID, watermark string) SourceChannel {
	channel := SourceChannel{
		ChannelID:        channelID,
		Name:             "Test Channel",
		Active:           true,
		LastVideoChecked: watermark,
	}
	if err := c.createChannel(&channel); err != nil {
		t.Fatalf("create channel %s\n", err)
	}
	c.pollSchedule(channel.ID)
	return channel
}

func testAccount(t *testing.T, c *Clipper, name string, expiry time.Time) DestinationAccount {
	account := DestinationAccount{
		Name:         name,
		AccessToken:  "A1",
		RefreshToken: "R1",
		TokenExpiry:  expiry,
		Active:       true,
	}
	if err := c.CreateAccount(&account); err != nil {
		t.Fatalf("create account %s\n", err)
	}
	return account
}

func testLinkage(t *testing.T, c *Clipper, sourceID, destID uint) Linkage {
	linkage := Linkage{
		SourceID:        sourceID,
		DestinationID:   destID,
		ClipsPerVideo:   2,
		MinClipDuration: 30,
		MaxClipDuration: 60,
		Active:          true,
	}
	if err := c.CreateLinkage(&linkage); err != nil {
		t.Fatalf("create linkage %s\n", err)
	}
	return linkage
}

func testJob(t *testing.T, c *Clipper, linkageID uint, videoID string) ClippingJob {
	job := ClippingJob{
		LinkageID:        linkageID,
		SourceVideoID:    videoID,
		SourceVideoTitle: "title of " + videoID,
	}
	created, err := c.createJob(&job)
	if err != nil {
		t.Fatalf("create job %s\n", err)
	}
	if created == false {
		t.Fatalf("job %s already exists\n", videoID)
	}
	return job
}

// two candidates inside the default 30..60s policy window
const testCandidates = `[
  {"start_time": 10.0, "end_time": 55.0, "title": "First Moment",
   "description": "wow", "tags": ["gaming", "fun"], "confidence": 0.9,
   "viral_factors": ["hook detected"], "criteria": "dramatic hook"},
  {"start_time": 100.0, "end_time": 140.0, "title": "Second Moment",
   "description": "omg", "tags": ["gaming"], "confidence": 0.8,
   "viral_factors": ["plot twist"], "criteria": "surprise"}
]`
