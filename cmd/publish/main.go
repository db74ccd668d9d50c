package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"

	"github.com/xujw3/mySub/internal/publish"
)

var outputFiles = []string{
	"config_sub_store.txt",
	"config_clash.txt",
	"config_v2.txt",
	"config_loon.txt",
}

func main() {
	dir := flag.String("dir", ".", "directory holding the pipeline output files")
	flag.Parse()

	api := os.Getenv("APIURL")
	if api == "" {
		gologger.Fatal().Msg("APIURL is not set")
	}

	var merged []string
	for _, name := range outputFiles {
		path := filepath.Join(*dir, name)
		lines, err := publish.Sections(path)
		if err != nil {
			gologger.Warning().Msgf("skipping %s: %s", path, err)
			continue
		}
		merged = append(merged, lines...)
	}
	gologger.Info().Msgf("publishing %d merged entries", len(merged))

	client := &publish.Client{API: api, HTTP: &http.Client{Timeout: 30 * time.Second}}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := client.Push(ctx, strings.Join(merged, "\n")); err != nil {
		gologger.Fatal().Msgf("publish failed: %s", err)
	}
}
