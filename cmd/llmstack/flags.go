package main

import "time"

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
}

// UpFlags holds flags for the up command.
type UpFlags struct {
	Timeout time.Duration
}

// StatusFlags holds flags for the status command.
type StatusFlags struct {
	APIUrl     string
	APITimeout time.Duration
}

// ChatFlags holds flags for the chat command.
type ChatFlags struct {
	User        string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Addr string
}

// HistoryFlags holds flags for the history command.
type HistoryFlags struct {
	Limit int
}
