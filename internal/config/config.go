// Package config persists the subscription state: the Telegram channel
// sources and the four category lists, all in one YAML document.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/projectdiscovery/gologger"
	"gopkg.in/yaml.v3"
)

// Document is the whole persisted state. The pipeline loads it once, mutates
// it in memory through the run and rewrites the file wholesale at the end.
type Document struct {
	TGChannels  []string `yaml:"tg_channels"`
	AirportSubs []string `yaml:"airport_subs"`
	ClashSubs   []string `yaml:"clash_subs"`
	V2Subs      []string `yaml:"v2_subs"`
	PlayList    []string `yaml:"play_list"`
}

// Load reads path. A missing or unreadable file is not fatal; the pipeline
// starts from an empty document and rebuilds what it can.
func Load(path string) Document {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			gologger.Warning().Msgf("read %s: %s, starting from empty config", path, err)
		}
		return Document{}
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		gologger.Warning().Msgf("parse %s: %s, starting from empty config", path, err)
		return Document{}
	}
	return doc
}

func Save(doc Document, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Channels converts stored channel links (https://t.me/univstar) to the
// public preview form (https://t.me/s/univstar) the harvester can scrape
// without authentication.
func (d Document) Channels() []string {
	out := make([]string, 0, len(d.TGChannels))
	for _, raw := range d.TGChannels {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(strings.TrimSuffix(raw, "/"), "/")
		id := parts[len(parts)-1]
		if id == "" {
			continue
		}
		out = append(out, "https://t.me/s/"+id)
	}
	return out
}
