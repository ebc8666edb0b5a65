// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all settings for the video production pipeline.
// Priority: env vars > .env file > config file > defaults.
type Config struct {
	// BaseDir is the root directory holding projects/ and shared/.
	BaseDir string `json:"base_dir"`

	// Voice settings for narration synthesis.
	VoiceID       string  `json:"voice_id"`
	TTSModelID    string  `json:"tts_model_id"`
	TTSStability  float64 `json:"tts_stability"`
	TTSSimilarity float64 `json:"tts_similarity"`
	// TTSRatePerSec caps outbound synthesis requests per second.
	TTSRatePerSec float64 `json:"tts_rate_per_sec"`

	// Video settings. FrameRate must be consistent across all segments or
	// concat produces timestamp drift.
	FrameRate    int     `json:"frame_rate"`
	VideoBitrate string  `json:"video_bitrate"`
	AudioBitrate string  `json:"audio_bitrate"`
	OutputWidth  int     `json:"output_width"`
	OutputHeight int     `json:"output_height"`
	VideoEncoder string  `json:"video_encoder"`
	MusicVolume  float64 `json:"music_volume"`

	// Stage worker defaults. Policy constants tuned to third-party rate
	// limits and local capacity, overridable per invocation.
	AudioWorkers    int `json:"audio_workers"`
	FootageWorkers  int `json:"footage_workers"`
	PreviewWorkers  int `json:"preview_workers"`
	AssembleWorkers int `json:"assemble_workers"`

	// External tool settings.
	YtdlpPath     string        `json:"ytdlp_path"`
	YtdlpTimeout  time.Duration `json:"ytdlp_timeout"`
	FFmpegPath    string        `json:"ffmpeg_path"`
	FFprobePath   string        `json:"ffprobe_path"`
	FFmpegTimeout time.Duration `json:"ffmpeg_timeout"`

	// Retry settings shared by network stages.
	MaxRetries        int           `json:"max_retries"`
	InitialBackoff    time.Duration `json:"initial_backoff"`
	MaxBackoff        time.Duration `json:"max_backoff"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`

	// Theme maps lowercase keywords found in narration text to caption
	// colors, with a fallback default.
	ThemeColors  map[string]string `json:"theme_colors"`
	DefaultColor string            `json:"default_color"`

	// ChannelName is shown in the long-form outro branding.
	ChannelName string `json:"channel_name"`

	// Credentials. TTSAPIKey is read from CLIPFORGE_TTS_API_KEY or from
	// the key file under shared/creds.
	TTSAPIKey     string `json:"-"`
	SerpAPIKey    string `json:"-"`
	ClientSecrets string `json:"client_secrets"`
	TokenFile     string `json:"token_file"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, "clipforge")
	return &Config{
		BaseDir: base,

		VoiceID:       "",
		TTSModelID:    "eleven_multilingual_v2",
		TTSStability:  0.5,
		TTSSimilarity: 0.75,
		TTSRatePerSec: 2.0,

		FrameRate:    30,
		VideoBitrate: "8M",
		AudioBitrate: "192k",
		OutputWidth:  1080,
		OutputHeight: 1920, // 9:16 vertical shorts
		VideoEncoder: "libx264",
		MusicVolume:  0.15,

		AudioWorkers:    4,
		FootageWorkers:  3,
		PreviewWorkers:  4,
		AssembleWorkers: 2,

		YtdlpPath:     "yt-dlp",
		YtdlpTimeout:  10 * time.Minute,
		FFmpegPath:    "ffmpeg",
		FFprobePath:   "ffprobe",
		FFmpegTimeout: 30 * time.Minute,

		MaxRetries:        5,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,

		ThemeColors:  defaultThemeColors(),
		DefaultColor: "#FFFFFF",

		ChannelName: "F1 BURNOUTS",

		ClientSecrets: filepath.Join(base, "shared", "creds", "client_secrets.json"),
		TokenFile:     filepath.Join(base, "shared", "creds", "youtube_token.json"),
	}
}

// Racing team and driver colors carried over from the channel's house
// style; callers can replace the whole map via the config file.
func defaultThemeColors() map[string]string {
	return map[string]string{
		"red bull":     "#3671C6",
		"redbull":      "#3671C6",
		"mclaren":      "#FF8000",
		"ferrari":      "#E8002D",
		"mercedes":     "#27F4D2",
		"aston martin": "#229971",
		"alpine":       "#FF87BC",
		"williams":     "#64C4FF",
		"haas":         "#B6BABD",
		"sauber":       "#52E252",
		"verstappen":   "#3671C6",
		"vettel":       "#3671C6",
		"webber":       "#3671C6",
		"perez":        "#3671C6",
		"norris":       "#FF8000",
		"piastri":      "#FF8000",
		"leclerc":      "#E8002D",
		"sainz":        "#E8002D",
		"hamilton":     "#27F4D2",
		"russell":      "#27F4D2",
		"alonso":       "#229971",
	}
}

// Load loads configuration from environment variables, .env, config file,
// and applies defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// .env is optional and only fills in unset environment variables.
	godotenv.Load()

	if err := cfg.loadFromFile(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from clipforge.json in the current
// directory or ~/.config/clipforge/.
func (c *Config) loadFromFile() error {
	paths := []string{
		"clipforge.json",
		filepath.Join(os.Getenv("HOME"), ".config", "clipforge", "clipforge.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("CLIPFORGE_BASE_DIR"); v != "" {
		c.BaseDir = v
	}
	if v := os.Getenv("CLIPFORGE_VOICE_ID"); v != "" {
		c.VoiceID = v
	}
	if v := os.Getenv("CLIPFORGE_TTS_MODEL"); v != "" {
		c.TTSModelID = v
	}
	if v := os.Getenv("CLIPFORGE_TTS_API_KEY"); v != "" {
		c.TTSAPIKey = v
	}
	if v := os.Getenv("SERPAPI_KEY"); v != "" {
		c.SerpAPIKey = v
	}
	if v := os.Getenv("CLIPFORGE_YTDLP_PATH"); v != "" {
		c.YtdlpPath = v
	}
	if v := os.Getenv("CLIPFORGE_FFMPEG_PATH"); v != "" {
		c.FFmpegPath = v
	}
	if v := os.Getenv("CLIPFORGE_FFPROBE_PATH"); v != "" {
		c.FFprobePath = v
	}
	if v := os.Getenv("CLIPFORGE_VIDEO_ENCODER"); v != "" {
		c.VideoEncoder = v
	}
	if v := os.Getenv("CLIPFORGE_YTDLP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.YtdlpTimeout = d
		}
	}
	if v := os.Getenv("CLIPFORGE_AUDIO_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AudioWorkers = n
		}
	}
	if v := os.Getenv("CLIPFORGE_FOOTAGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FootageWorkers = n
		}
	}
	if v := os.Getenv("CLIPFORGE_PREVIEW_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PreviewWorkers = n
		}
	}
	if v := os.Getenv("CLIPFORGE_ASSEMBLE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AssembleWorkers = n
		}
	}
	if v := os.Getenv("CLIPFORGE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}

	// Key file fallback when the env var is unset.
	if c.TTSAPIKey == "" {
		if data, err := os.ReadFile(filepath.Join(c.SharedDir(), "creds", "elevenlabs")); err == nil {
			c.TTSAPIKey = strings.TrimSpace(string(data))
		}
	}
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir must be set")
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive")
	}
	if c.OutputWidth <= 0 || c.OutputHeight <= 0 {
		return fmt.Errorf("output dimensions must be positive")
	}
	if c.AudioWorkers < 1 || c.FootageWorkers < 1 || c.PreviewWorkers < 1 || c.AssembleWorkers < 1 {
		return fmt.Errorf("worker counts must be at least 1")
	}
	if c.MusicVolume < 0 || c.MusicVolume > 1 {
		return fmt.Errorf("music_volume must be in [0,1]")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 || c.MaxBackoff <= 0 {
		return fmt.Errorf("backoff durations must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	return nil
}

// ProjectDir returns the directory for a named project.
func (c *Config) ProjectDir(project string) string {
	return filepath.Join(c.BaseDir, "projects", project)
}

// SharedDir returns the directory holding shared assets (music, fonts, creds).
func (c *Config) SharedDir() string {
	return filepath.Join(c.BaseDir, "shared")
}

// BackgroundMusic returns the path of the shared background music track.
func (c *Config) BackgroundMusic() string {
	return filepath.Join(c.SharedDir(), "music", "background.mp3")
}

// FontFile returns the path of the caption font.
func (c *Config) FontFile() string {
	return filepath.Join(c.SharedDir(), "fonts", "Formula1-Bold.ttf")
}

// OutroAudio returns the path of the shared long-form outro voiceover.
func (c *Config) OutroAudio() string {
	return filepath.Join(c.SharedDir(), "audio", "outro_longform.mp3")
}
