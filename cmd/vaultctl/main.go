// Command vaultctl inspects the vault catalog and subtitle files offline.
package main

import (
	"os"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger().
		Level(zerolog.WarnLevel)

	if err := newRootCmd(logger).Execute(); err != nil {
		os.Exit(1)
	}
}
