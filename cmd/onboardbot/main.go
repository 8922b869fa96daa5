package main

import (
	"log"

	"github.com/m3rciful/onboardbot/bot/app"
	"github.com/m3rciful/onboardbot/core/cmd"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("onboardbot: %v", err)
	}
}
