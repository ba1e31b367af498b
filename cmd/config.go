package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
	LogLevel                  string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret                 string        `env:"JWT_SECRET,required=true"`
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	MaxFrameBytes             int64         `env:"MAX_FRAME_BYTES,default=4096"`
	MaxContentLength          int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	CharReplacement           string        `env:"CHARACTER_REPLACEMENT,default=*"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	GCInterval                time.Duration `env:"GC_INTERVAL,default=5m"`
	ReportInterval            time.Duration `env:"REPORT_INTERVAL,default=1m"`
	LeaveAllRoomsOnDisconnect bool          `env:"LEAVE_ALL_ROOMS_ON_DISCONNECT,default=false"`
}

func characterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
