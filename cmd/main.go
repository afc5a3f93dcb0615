package main

import (
	"log/slog"
	"os"

	"github.com/kpotier/molorder/pkg/cfg"
	"github.com/kpotier/molorder/pkg/util"
)

func main() {
	log := util.NewTextLogger(slog.LevelInfo)

	if len(os.Args) != 2 {
		log.Error("one argument is needed: path of the configuration file")
		os.Exit(2)
	}

	c, err := cfg.New(os.Args[1])
	if err != nil {
		log.Error("cannot read the configuration file", "file", os.Args[1], "error", err)
		os.Exit(1)
	}

	if c.Start(log) > 0 {
		os.Exit(1)
	}
}
