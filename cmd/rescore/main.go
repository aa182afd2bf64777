// Command rescore re-runs the score calculator against every stored crawl
// result's raw signals and reports results whose cached breakdown has
// drifted. With -fix, drifted rows are rewritten. Exits nonzero when drift
// is found and not fixed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/score"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/storage"
)

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/hype.db"), "path to sqlite database")
	fix := flag.Bool("fix", false, "rewrite drifted score rows")
	flag.Parse()

	store, err := storage.NewSQLite(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	results, err := store.ListCrawlResults(ctx)
	if err != nil {
		log.Fatalf("list crawl results: %v", err)
	}

	drifted := 0
	for _, res := range results {
		want := score.Calculate(score.Input{
			Mentions:        res.Mentions,
			AnimationCount:  res.AnimationCount,
			GlowCount:       res.GlowCount,
			RainbowCount:    res.RainbowCount,
			WordCount:       res.WordCount,
			LighthouseBonus: res.Breakdown.LighthouseBonus,
			AIImageBonus:    res.Breakdown.AIImageBonus,
		})
		if want == res.Breakdown {
			continue
		}

		drifted++
		fmt.Printf("result %d (site %d): stored total %d, recomputed %d\n",
			res.ID, res.SiteID, res.Breakdown.Total, want.Total)

		if *fix {
			res.Breakdown = want
			if err := store.UpdateCrawlResultScores(ctx, &res); err != nil {
				log.Fatalf("fix result %d: %v", res.ID, err)
			}
		}
	}

	switch {
	case drifted == 0:
		fmt.Printf("all %d crawl results reproduce their stored scores\n", len(results))
	case *fix:
		fmt.Printf("fixed %d of %d crawl results\n", drifted, len(results))
	default:
		fmt.Printf("%d of %d crawl results drifted (run with -fix to repair)\n", drifted, len(results))
		os.Exit(1)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
