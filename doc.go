// Package kwharvest expands a seed phrase into query variations and harvests
// autocomplete suggestions for them from public search providers.
//
// # One-shot harvest
//
//	client, _ := kwharvest.New()
//	defer client.Close()
//	res, _ := client.Harvest(ctx, kwharvest.Request{
//	    Seed:       "gift",
//	    Locale:     "US",
//	    Providers:  []string{"google", "bing"},
//	    Strategies: kwharvest.Strategies{EnglishSuffix: true},
//	})
//	_ = client.WriteCSV(os.Stdout, res.Keywords)
//
// # Background runs
//
//	run, _ := client.Start(ctx, req)
//	// ... poll run.Progress(), or cancel:
//	_ = client.Cancel(ctx, run.ID())
//	<-run.Done()
//
// With WithRedis, suggestions are cached across runs and finished runs are
// kept as snapshots.
package kwharvest
