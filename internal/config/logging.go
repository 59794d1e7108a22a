package config

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/JesmerAFK/movie-night/internal/logx"
)

func SetupLogging() {
	var out io.Writer = os.Stdout
	if p := LogFilePath(); p != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   p,
			MaxSize:    LogMaxSizeMB(),
			MaxBackups: LogMaxBackups(),
			MaxAge:     LogMaxAgeDays(),
		})
	}

	log.SetFlags(0)
	log.SetPrefix("")

	filter := logx.New(out, LogDedupWindow(), LogAllowRegex(), LogDenyRegex())
	log.SetOutput(filter)
	log.Printf("[init] logging configured (file=%q dedup=%s allow=%q deny=%q)", LogFilePath(), LogDedupWindow(), LogAllowRegex(), LogDenyRegex())
}
