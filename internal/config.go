package internal

import (
	"fmt"
	"time"
)

type Config struct {
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	IndexBufferSize      int           `env:"INDEX_BUFFER_SIZE,default=256"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=5s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	CensoredFilepath     string        `env:"CENSORED_FILEPATH"`
	CensoredReplacement  string        `env:"CENSORED_CHARACTER_REPLACEMENT,default=*"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
}

// CharacterRune validates that a replacement setting is exactly one rune.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CENSORED_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
