package common

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets the global logrus output, format and level. Unknown
// levels fall back to info.
func ConfigureLogging(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level; using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
