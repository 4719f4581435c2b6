package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/glglak/elastic-personalization-poc/indexworker"
)

func main() {
	if err := indexworker.Run(); err != nil {
		log.Error().Err(err).Msg("index-worker exited with error")
		os.Exit(1)
	}
}
