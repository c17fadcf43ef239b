package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
	logsvc "github.com/trezcool/masomo-parents/services/logger"
	"github.com/trezcool/masomo-parents/services/schoolapi"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stderr, "CLI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	client, err := schoolapi.NewClient(conf.SchoolAPI, logger)
	if err != nil {
		std.Fatal(err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	parent.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		provider:   client,
		logger:     logger,
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
		colored:    true,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp && !core.IsValidationError(err) {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
