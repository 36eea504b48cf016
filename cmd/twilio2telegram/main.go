// Twilio2Telegram - Twilio SMS and call alerts relayed to chat
// License: MIT
//
// Copyright (c) 2026 Twilio2Telegram contributors

package main

import (
	"fmt"
	"os"
	"runtime"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const logo = "📟"

// formatVersion returns the version string with optional git commit
func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// formatBuildInfo returns build time and go version info
func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s twilio2telegram %s\n", logo, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}

func main() {
	command := "serve"
	if len(os.Args) >= 2 {
		command = os.Args[1]
	}

	switch command {
	case "serve":
		serveCmd()
	case "version", "--version", "-v":
		printVersion()
	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s twilio2telegram - Twilio notifications over chat %s\n\n", logo, version)
	fmt.Println("Usage: twilio2telegram [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve       Start the webhook server and chat bot (default)")
	fmt.Println("  version     Show version information")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  TWILIO_AUTH_TOKEN      Twilio auth token used to verify webhooks (required)")
	fmt.Println("  TELEGRAM_BOT_TOKEN     Telegram bot token (required for telegram)")
	fmt.Println("  TELEGRAM_OWNER         Chat ID notified with the Twilio event ID (required)")
	fmt.Println("  TELEGRAM_SUBSCRIBERS   Comma separated chat IDs also notified")
	fmt.Println("  CHAT_PROVIDER          telegram, slack or discord (default telegram)")
	fmt.Println("  PUBLIC_URL             Public base URL Twilio posts to, when behind a proxy")
	fmt.Println("  HOST, PORT             Listen address (default 0.0.0.0:8080)")
	fmt.Println("  SEND_TIMEOUT           Per recipient send timeout (default 5s)")
	fmt.Println("  LOG_LEVEL              debug, info, warn or error (default info)")
}
