package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kalah/cmd"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, PartsExclude: []string{zerolog.TimestampFieldName}})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := kalah(); err != nil {
		log.Fatal().Err(err).Msg("kalah failed")
	}
}

func kalah() error {
	root := cmd.Root()
	root.SetArgs(os.Args[1:])
	return root.Execute()
}
