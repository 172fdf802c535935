package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// LoggerConfig selects level, encoding and destination for NewLogger.
// OutputFile is "stdout", "stderr" or a file path; a file also tees to stdout.
type LoggerConfig struct {
	Level      string
	Format     string
	OutputFile string
}

// Bootstrap is used until the service configuration has been loaded.
func Bootstrap() *LoggerConfig {
	return &LoggerConfig{Level: "info", Format: "json", OutputFile: "stdout"}
}

// normalized returns a copy with case folded and empty fields filled from Bootstrap.
func (c LoggerConfig) normalized() *LoggerConfig {
	def := Bootstrap()
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.OutputFile = strings.TrimSpace(c.OutputFile)
	if c.Level == "" {
		c.Level = def.Level
	}
	if c.Format == "" {
		c.Format = def.Format
	}
	if c.OutputFile == "" {
		c.OutputFile = def.OutputFile
	}
	return &c
}

func (c *LoggerConfig) zapLevel() zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		if c.Level == "warning" {
			return zapcore.WarnLevel
		}
		return zapcore.InfoLevel
	}
	return lvl
}
