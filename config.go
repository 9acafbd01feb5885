package main

import (
	"strings"

	"github.com/labstack/gommon/log"
)

type Config struct {
	Port            string `env:"APP_PORT,required=true"`
	LiveKitURL      string `env:"LIVEKIT_URL,required=true"`
	LiveKitKey      string `env:"LIVEKIT_API_KEY,required=true"`
	LiveKitSecret   string `env:"LIVEKIT_API_SECRET,required=true"`
	LogLevel        string `env:"LOG_LEVEL,default=error"`
	WebhookURLs     string `env:"WEBHOOK_URLS"`
	ReportsDir      string `env:"REPORTS_DIR,default=reports"`
	EventBufferSize int    `env:"EVENT_BUFFER_SIZE,default=256"`
	S3Region        string `env:"S3_REGION"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3Directory     string `env:"S3_DIRECTORY"`
}

func (c Config) Verbosity() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "info":
		return log.INFO
	case "warn":
		return log.WARN
	}
	return log.ERROR
}

// Webhooks separates the webhook URLs by comma.
func (c Config) Webhooks() []string {
	var webhooks = []string{}
	for _, url := range strings.Split(c.WebhookURLs, ",") {
		if url = strings.TrimSpace(url); url != "" {
			webhooks = append(webhooks, url)
		}
	}
	return webhooks
}

func (c Config) UploadsToS3() bool {
	return c.S3Region != "" && c.S3Bucket != ""
}
