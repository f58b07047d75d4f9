// Command sheetsql is an interactive SQL console for Google Sheets.
package main

import (
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalln(err)
	}
}
