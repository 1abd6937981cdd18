package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets the global logrus level and formatter.
func ConfigureLogging(level, format string) error {
	if err := validateLogging(level, format); err != nil {
		return err
	}
	lvl, _ := log.ParseLevel(level)
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func validateLogging(level, format string) error {
	if _, err := log.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid log level '%s'", level)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log format '%s': must be text or json", format)
	}
	return nil
}
