package main

import (
	"github.com/fitfinder/fitfinder/config"
	"github.com/fitfinder/fitfinder/ui"
	"github.com/fitfinder/fitfinder/util/log"
)

func main() {
	ok, err := acquireLock()
	if err != nil {
		log.Fatalf("Failed to acquire single-instance lock: %v", err)
	}
	if !ok {
		log.Printf("Another instance of %s is already running.", config.AppName)
		return
	}
	defer releaseLock()

	log.Printf("Starting %s %s", config.AppName, config.AppVersion)
	ui.GetInstance().Run()
	log.Printf("%s exited", config.AppName)
}
