package config

import (
	"fmt"
	"log/slog"
	"strings"
)

type Log struct {
	Format    LogFormat  `env:"LOG_FORMAT" envDefault:"JSON"`
	Level     slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	AddSource bool       `env:"LOG_ADD_SOURCE" envDefault:"false"`
}

// LogFormat selects the slog handler: JSON for deployments, TEXT (tint) locally.
type LogFormat uint8

const (
	LogFormatJSON LogFormat = iota
	LogFormatText
)

var logFormatNames = map[LogFormat]string{
	LogFormatJSON: "JSON",
	LogFormatText: "TEXT",
}

func (f LogFormat) String() string {
	if name, ok := logFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("LogFormat(%d)", uint8(f))
}

// UnmarshalText implements [encoding.TextUnmarshaler]. Matching is case-insensitive.
func (f *LogFormat) UnmarshalText(text []byte) error {
	upper := strings.ToUpper(strings.TrimSpace(string(text)))
	for format, name := range logFormatNames {
		if name == upper {
			*f = format
			return nil
		}
	}
	return fmt.Errorf("unknown log format %q, expected JSON or TEXT", text)
}

func (f LogFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
