package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

type Options struct {
	Serve    ServeCommand    `command:"serve" description:"Run the robot command server"`
	Setup    SetupCommand    `command:"setup" description:"Scan for servos, assign roles and record home"`
	Jog      JogCommand      `command:"jog" description:"Run the move routine locally with a live chart"`
	Discover DiscoverCommand `command:"discover" description:"Find a server on the local network"`
	Move     MoveCommand     `command:"move" description:"Ask a server to run the move routine"`
	Say      SayCommand      `command:"say" description:"Ask a server to speak text"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "pastabot - UDP command server for a two-motor talking robot"

	// Flags fall back to PASTABOT_* variables, which may come from .env
	_ = godotenv.Load()

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
