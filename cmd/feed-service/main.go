package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/glglak/elastic-personalization-poc/feedservice"
)

func main() {
	if err := feedservice.Run(); err != nil {
		log.Error().Err(err).Msg("feed-service exited with error")
		os.Exit(1)
	}
}
