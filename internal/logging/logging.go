// Package logging configures the process-wide logrus logger.
//
// Plugins write their menu to stdout, so all diagnostics go to stderr, which
// SwiftBar collects in its plugin log.
package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Setup points the standard logger at w. Only warnings and errors are emitted
// unless debug is set.
func Setup(w io.Writer, debug bool) {
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		DisableSorting:   false,
		QuoteEmptyFields: true,
	})
	if debug {
		log.SetLevel(log.DebugLevel)
		return
	}
	log.SetLevel(log.WarnLevel)
}
