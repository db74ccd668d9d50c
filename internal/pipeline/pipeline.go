// Package pipeline sequences one full run: validate what is stored, harvest
// and classify new candidates, merge, persist, confirm rendering, write the
// output files.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/projectdiscovery/gologger"

	"github.com/xujw3/mySub/internal/classify"
	"github.com/xujw3/mySub/internal/config"
	"github.com/xujw3/mySub/internal/dedupe"
	"github.com/xujw3/mySub/internal/harvest"
	"github.com/xujw3/mySub/internal/nodecheck"
	"github.com/xujw3/mySub/internal/pool"
)

var playURL = regexp.MustCompile(`https?://\S+`)

// Concurrency bounds per phase. Node probing stays low so the converter
// hosts do not rate limit us.
const (
	existingLimit = 30
	newLimit      = 50
	nodeLimit     = 20
)

type Runner struct {
	ConfigPath string
	Classifier *classify.Classifier
	Harvester  *harvest.Harvester
	Checker    *nodecheck.Checker
}

// buckets is the in-memory shape of the four category lists mid-run.
type buckets struct {
	airport []string
	clash   []string
	v2      []string
	play    []string
}

func (r *Runner) Run(ctx context.Context) error {
	doc := config.Load(r.ConfigPath)
	gologger.Info().Msgf("loaded config: %d airport, %d clash, %d v2, %d play, %d channels",
		len(doc.AirportSubs), len(doc.ClashSubs), len(doc.V2Subs), len(doc.PlayList), len(doc.TGChannels))

	valid := r.validateExisting(ctx, doc)

	candidates := r.Harvester.Collect(ctx, doc.Channels())
	gologger.Info().Msgf("harvested %d candidate links", len(candidates))
	fresh := r.classifyNew(ctx, candidates)

	final := config.Document{
		TGChannels:  doc.TGChannels,
		AirportSubs: MergeCategory(valid.airport, fresh.airport),
		ClashSubs:   MergeCategory(valid.clash, fresh.clash),
		V2Subs:      MergeCategory(valid.v2, fresh.v2),
		PlayList:    MergeCategory(valid.play, fresh.play),
	}
	logDelta(doc, final)

	if err := config.Save(final, r.ConfigPath); err != nil {
		return err
	}

	base := strings.TrimSuffix(r.ConfigPath, ".yaml")
	if err := writeStoreFile(base+"_sub_store.txt", final.PlayList, final.AirportSubs); err != nil {
		return err
	}

	r.checkCategory(ctx, final.AirportSubs, "loon", base+"_loon.txt")
	r.checkCategory(ctx, final.ClashSubs, "clash", base+"_clash.txt")
	r.checkCategory(ctx, final.V2Subs, "v2ray", base+"_v2.txt")
	return nil
}

// validateExisting re-checks everything currently stored, including the URLs
// buried in annotated play-list lines, and rebuckets by the fresh verdict.
// Whatever fails to classify is silently gone; only the totals are reported.
func (r *Runner) validateExisting(ctx context.Context, doc config.Document) buckets {
	var urls []string
	for _, list := range [][]string{doc.AirportSubs, doc.ClashSubs, doc.V2Subs} {
		for _, u := range list {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
	}
	for _, entry := range doc.PlayList {
		if m := playURL.FindString(entry); m != "" {
			urls = append(urls, m)
		}
	}
	if len(urls) == 0 {
		gologger.Info().Msg("no existing subscriptions to validate")
		return buckets{}
	}
	gologger.Info().Msgf("validating %d existing subscriptions", len(urls))

	verdicts := pool.Map(len(urls), existingLimit, "validate existing", func(i int) (classify.Verdict, bool) {
		return r.Classifier.Check(ctx, urls[i])
	})
	b := bucketVerdicts(verdicts)
	kept := len(b.airport) + len(b.clash) + len(b.v2)
	gologger.Info().Msgf("existing subscriptions: %d -> %d still valid", len(urls), kept)
	return b
}

func (r *Runner) classifyNew(ctx context.Context, candidates []string) buckets {
	if len(candidates) == 0 {
		return buckets{}
	}
	verdicts := pool.Map(len(candidates), newLimit, "classify new", func(i int) (classify.Verdict, bool) {
		return r.Classifier.Check(ctx, candidates[i])
	})
	b := bucketVerdicts(verdicts)
	gologger.Info().Msgf("new subscriptions: %d airport, %d clash, %d v2",
		len(b.airport), len(b.clash), len(b.v2))
	return b
}

// bucketVerdicts sorts verdicts into category lists. Airport verdicts also
// contribute an annotated play-list line carrying the remaining traffic.
func bucketVerdicts(verdicts []classify.Verdict) buckets {
	var b buckets
	for _, v := range verdicts {
		switch v.Category {
		case classify.Airport:
			b.airport = append(b.airport, v.URL)
			if v.Info != "" {
				b.play = append(b.play, v.Info+" "+v.URL)
			}
		case classify.Clash:
			b.clash = append(b.clash, v.URL)
		case classify.V2:
			b.v2 = append(b.v2, v.URL)
		}
	}
	return b
}

// MergeCategory unions two lists, drops exact duplicates, sorts, then keeps
// one entry per domain. Sorting first makes the survivor deterministic: the
// lexicographically greatest entry of each domain wins. Merging a merged
// list with nothing changes nothing.
func MergeCategory(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, entry := range list {
			set[entry] = struct{}{}
		}
	}
	union := make([]string, 0, len(set))
	for entry := range set {
		union = append(union, entry)
	}
	sort.Strings(union)
	return dedupe.ByDomain(union)
}

func (r *Runner) checkCategory(ctx context.Context, urls []string, target, path string) {
	if len(urls) == 0 {
		return
	}
	gologger.Info().Msgf("checking %d subscriptions against %s converters", len(urls), target)
	valid := pool.Map(len(urls), nodeLimit, "node check "+target, func(i int) (string, bool) {
		return r.Checker.Validate(ctx, urls[i], target)
	})
	if len(valid) > 0 {
		sort.Strings(valid)
		valid = dedupe.ByDomain(valid)
		logCountries(r.Checker, valid, target)
	}
	if err := writeList(path, valid); err != nil {
		gologger.Error().Msgf("%s", err)
	}
}

func writeStoreFile(path string, play, subs []string) error {
	content := "-- play_list --\n\n" + strings.Join(play, "\n") +
		"\n\n-- sub_list --\n\n" + strings.Join(subs, "\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	gologger.Info().Msgf("wrote %d play and %d sub entries to %s", len(play), len(subs), path)
	return nil
}

func writeList(path string, urls []string) error {
	if err := os.WriteFile(path, []byte(strings.Join(urls, "\n")), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	gologger.Info().Msgf("saved %d links to %s", len(urls), path)
	return nil
}

func logCountries(c *nodecheck.Checker, urls []string, target string) {
	counts := make(map[string]int)
	for _, u := range urls {
		counts[c.Country(u)]++
	}
	for country, n := range counts {
		gologger.Debug().Msgf("%s: %d working via %s", target, n, country)
	}
}

func logDelta(before, after config.Document) {
	rows := []struct {
		name string
		b, a int
	}{
		{"airport", len(before.AirportSubs), len(after.AirportSubs)},
		{"clash", len(before.ClashSubs), len(after.ClashSubs)},
		{"v2", len(before.V2Subs), len(after.V2Subs)},
		{"play", len(before.PlayList), len(after.PlayList)},
	}
	for _, row := range rows {
		gologger.Info().Msgf("%s: %d -> %d", row.name, row.b, row.a)
	}
}
