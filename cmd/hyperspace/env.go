package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// Env captures defaults read from the environment so flags stay optional.
type Env struct {
	Workers  int
	LogLevel string
}

// FromEnv reads HYPERSPACE_WORKERS and HYPERSPACE_LOG_LEVEL. Unparsable
// values are ignored.
func FromEnv() Env {
	env := Env{LogLevel: "info"}

	if v := os.Getenv("HYPERSPACE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			env.Workers = n
		}
	}

	if v := os.Getenv("HYPERSPACE_LOG_LEVEL"); v != "" {
		env.LogLevel = v
	}

	return env
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}

	return level, nil
}
