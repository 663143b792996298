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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/defsub/clipcast"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	MediaClips = "clips"
)

type BucketConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	ObjectPrefix    string
	UseSSL          bool
	URLExpiration   time.Duration
	Media           string
}

type DatabaseConfig struct {
	Driver  string
	Source  string
	LogMode bool
}

func (c DatabaseConfig) GormConfig() *gorm.Config {
	var glog logger.Interface
	if c.LogMode == false {
		glog = logger.Discard
	} else {
		glog = logger.Default
	}
	return &gorm.Config{Logger: glog}
}

type ClientConfig struct {
	CacheDir  string
	MaxAge    time.Duration
	UseCache  bool
	UserAgent string
}

func (c *ClientConfig) Merge(o ClientConfig) {
	if o.CacheDir != "" {
		c.CacheDir = o.CacheDir
	}
	c.MaxAge = o.MaxAge
	c.UseCache = o.UseCache
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
}

type SearchConfig struct {
	BleveDir string
}

// ClipperConfig holds the pipeline settings: where scratch media lives,
// how many jobs run at once, schedule cadences, and per-step timeouts.
type ClipperConfig struct {
	DB                DatabaseConfig
	DownloadDir       string
	OutputDir         string
	ImageCacheDir     string
	Workers           int
	PollLimit         int
	RecentLimit       int
	PollingInterval   time.Duration // default per-source cadence
	MinSourceDuration time.Duration // uploads shorter than this are skipped
	MonitorInterval   time.Duration
	DispatchInterval  time.Duration
	StatsInterval     time.Duration
	SweepInterval     time.Duration
	ScratchRetention  time.Duration
	DownloadTimeout   time.Duration
	IndexTimeout      time.Duration
	SelectTimeout     time.Duration
	UploadTimeout     time.Duration
	SearchLimit       int
}

type ClaudeAPIConfig struct {
	Key   string
	URL   string
	Model string
}

type GeminiAPIConfig struct {
	Key        string
	URL        string
	Model      string
	EmbedModel string
}

type OpenAIAPIConfig struct {
	Key        string
	Model      string
	EmbedModel string
}

type VoyageAPIConfig struct {
	Key   string
	URL   string
	Model string
}

type AIConfig struct {
	Claude ClaudeAPIConfig
	Gemini GeminiAPIConfig
	OpenAI OpenAIAPIConfig
	Voyage VoyageAPIConfig
}

type QdrantConfig struct {
	URL        string
	Key        string
	Collection string
}

type YouTubeAPIConfig struct {
	Key          string
	ClientID     string
	ClientSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type DownloaderConfig struct {
	Command string
}

type FFmpegConfig struct {
	Command      string
	ProbeCommand string
}

type Config struct {
	AI         AIConfig
	Buckets    []BucketConfig
	Client     ClientConfig
	Clipper    ClipperConfig
	DataDir    string
	Downloader DownloaderConfig
	FFmpeg     FFmpegConfig
	Qdrant     QdrantConfig
	Redis      RedisConfig
	Search     SearchConfig
	YouTube    YouTubeAPIConfig
}

func configDefaults(v *viper.Viper) {
	v.SetDefault("AI.Claude.URL", "https://api.anthropic.com/v1/messages")
	v.SetDefault("AI.Claude.Model", "claude-3-5-sonnet-latest")
	v.SetDefault("AI.Gemini.URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("AI.Gemini.Model", "gemini-1.5-flash")
	v.SetDefault("AI.Gemini.EmbedModel", "text-embedding-004")
	v.SetDefault("AI.OpenAI.Model", "gpt-4o-mini")
	v.SetDefault("AI.OpenAI.EmbedModel", "text-embedding-3-small")
	v.SetDefault("AI.Voyage.URL", "https://api.voyageai.com/v1/embeddings")
	v.SetDefault("AI.Voyage.Model", "voyage-3")

	v.SetDefault("Client.CacheDir", ".httpcache")
	v.SetDefault("Client.MaxAge", "720h") // 30 days in hours
	v.SetDefault("Client.UseCache", "false")
	v.SetDefault("Client.UserAgent", userAgent())

	v.SetDefault("Clipper.DB.Driver", "sqlite3")
	v.SetDefault("Clipper.DB.Source", "clipcast.db")
	v.SetDefault("Clipper.DB.LogMode", "false")
	v.SetDefault("Clipper.DownloadDir", "downloads")
	v.SetDefault("Clipper.OutputDir", "outputs")
	v.SetDefault("Clipper.ImageCacheDir", "imagecache")
	v.SetDefault("Clipper.Workers", "2")
	v.SetDefault("Clipper.PollLimit", "10")
	v.SetDefault("Clipper.RecentLimit", "10")
	v.SetDefault("Clipper.PollingInterval", "1h")
	v.SetDefault("Clipper.MinSourceDuration", "3m")
	v.SetDefault("Clipper.MonitorInterval", "5m")
	v.SetDefault("Clipper.DispatchInterval", "15s")
	v.SetDefault("Clipper.StatsInterval", "24h")
	v.SetDefault("Clipper.SweepInterval", "12h")
	v.SetDefault("Clipper.ScratchRetention", "72h")
	v.SetDefault("Clipper.DownloadTimeout", "30m")
	v.SetDefault("Clipper.IndexTimeout", "10m")
	v.SetDefault("Clipper.SelectTimeout", "2m")
	v.SetDefault("Clipper.UploadTimeout", "30m")
	v.SetDefault("Clipper.SearchLimit", "100")

	v.SetDefault("DataDir", ".")

	v.SetDefault("Downloader.Command", "yt-dlp")

	v.SetDefault("FFmpeg.Command", "ffmpeg")
	v.SetDefault("FFmpeg.ProbeCommand", "ffprobe")

	v.SetDefault("Qdrant.URL", "http://localhost:6333")
	v.SetDefault("Qdrant.Collection", "clipcast_video")

	v.SetDefault("Redis.Channel", "clipcast:progress")

	v.SetDefault("Search.BleveDir", ".")
}

func userAgent() string {
	return clipcast.AppName + "/" + clipcast.Version + " ( " + clipcast.Contact + " ) "
}

func readConfig(v *viper.Viper) (*Config, error) {
	var config Config
	var pathRegexp = regexp.MustCompile(`(file|dir|source)$`)
	err := v.ReadInConfig()
	dir := filepath.Dir(v.ConfigFileUsed())
	for _, k := range v.AllKeys() {
		if pathRegexp.MatchString(k) {
			val := v.Get(k)
			if strings.HasPrefix(val.(string), "/") == false {
				val = fmt.Sprintf("%s/%s", dir, val.(string))
				v.Set(k, val)
			}
		}
	}
	if err == nil {
		err = v.Unmarshal(&config)
	}
	return &config, err
}

func TestConfig() (*Config, error) {
	testDir := os.Getenv("TEST_CONFIG")
	if testDir == "" {
		return nil, errors.New("missing test config")
	}
	v := viper.New()
	configDefaults(v)
	v.SetConfigFile(filepath.Join(testDir, "test.yaml"))
	v.SetDefault("Clipper.DB.Source", filepath.Join(testDir, "clipcast.db"))
	return readConfig(v)
}

var configFile, configPath, configName string

func SetConfigFile(path string) {
	configFile = path
}

func AddConfigPath(path string) {
	configPath = path
}

func SetConfigName(name string) {
	configName = name
}

func GetConfig() (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	if configName != "" {
		v.SetConfigName(configName)
	}
	configDefaults(v)
	return readConfig(v)
}

func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	configDefaults(v)
	return readConfig(v)
}
