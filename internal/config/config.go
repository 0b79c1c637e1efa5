// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg" toml:"ffmpeg"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	History HistoryConfig `yaml:"history" toml:"history"`
	Lock    LockConfig    `yaml:"lock" toml:"lock"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind" toml:"bind"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path              string   `yaml:"path" toml:"path"`
	LogLines          int      `yaml:"log_lines" toml:"log_lines"`
	AllowedExtensions []string `yaml:"allowed_extensions" toml:"allowed_extensions"`
	Block             []string `yaml:"block" toml:"block"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

// HistoryConfig 任务历史，路径为空时不记录
type HistoryConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LockConfig 输出文件锁目录，为空时使用系统临时目录
type LockConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// DefaultExtensions are the container types accepted as inputs.
var DefaultExtensions = []string{".mkv", ".mp4", ".mp3", ".wav"}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: ":8080"},
		FFmpeg: FFmpegConfig{
			Path:              "ffmpeg",
			LogLines:          100,
			AllowedExtensions: append([]string(nil), DefaultExtensions...),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load 从 YAML 或 TOML 文件加载配置，文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.normalize()
	return cfg, nil
}

// 填充空值
func (c *Config) normalize() {
	if c.Server.Bind == "" {
		c.Server.Bind = ":8080"
	}
	if c.FFmpeg.Path == "" {
		c.FFmpeg.Path = "ffmpeg"
	}
	if c.FFmpeg.LogLines <= 0 {
		c.FFmpeg.LogLines = 100
	}
	if len(c.FFmpeg.AllowedExtensions) == 0 {
		c.FFmpeg.AllowedExtensions = append([]string(nil), DefaultExtensions...)
	}
	for i, ext := range c.FFmpeg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.FFmpeg.AllowedExtensions[i] = ext
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
