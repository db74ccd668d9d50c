package main

import (
	"context"
	"flag"

	"github.com/oschwald/geoip2-golang"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"

	"github.com/xujw3/mySub/internal/classify"
	"github.com/xujw3/mySub/internal/fetch"
	"github.com/xujw3/mySub/internal/harvest"
	"github.com/xujw3/mySub/internal/nodecheck"
	"github.com/xujw3/mySub/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "subscription config file")
	geoipPath := flag.String("geoip", "Country.mmdb", "GeoIP country database (optional)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	} else {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelInfo)
	}

	db, err := geoip2.Open(*geoipPath)
	if err != nil {
		gologger.Warning().Msg("GeoIP database not found. Labels will be generic.")
		db = nil
	} else {
		defer db.Close()
	}

	client := fetch.NewClient()
	runner := &pipeline.Runner{
		ConfigPath: *configPath,
		Classifier: classify.New(client),
		Harvester:  harvest.New(client),
		Checker:    nodecheck.New(client, db),
	}
	if err := runner.Run(context.Background()); err != nil {
		gologger.Fatal().Msgf("pipeline failed: %s", err)
	}
	gologger.Info().Msg("Success! Files updated.")
}
