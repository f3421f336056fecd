// Package wiring builds the peel.Orchestrator and its dependencies from
// a loaded config.Config, shared by cmd/webpeel-api's server process and
// cmd/webpeel-cli's local debugging commands so both assemble the same
// fetch/cache/extract stack from one place, mirroring how
// ncecere-raito's main.go composes its scraper/store dependencies
// inline before handing them to the HTTP server.
package wiring

import (
	"time"

	"webpeel/internal/cache"
	"webpeel/internal/changetrack"
	"webpeel/internal/config"
	"webpeel/internal/domainintel"
	"webpeel/internal/fetch"
	"webpeel/internal/llmx"
	"webpeel/internal/peel"
)

// BuildOrchestrator assembles the fetch dispatcher, result cache,
// domain-intelligence memory, change-tracking snapshot store, and
// optional LLM extractor into a peel.Orchestrator.
func BuildOrchestrator(cfg *config.Config) (*peel.Orchestrator, error) {
	c := cache.New(cache.Config{
		MaxEntries: cfg.Cache.MaxEntries,
		MaxBytes:   cfg.Cache.MaxBytes,
		FreshTTL:   time.Duration(cfg.Cache.FreshSeconds) * time.Second,
		StaleTTL:   time.Duration(cfg.Cache.StaleSeconds) * time.Second,
	})

	domainTTL := time.Duration(cfg.DomainIntel.TTLMinutes) * time.Minute
	domainMem := domainintel.New(domainTTL)

	dispatcher := fetch.NewDispatcher(fetch.Config{
		Domains:     domainMem,
		Simple:      fetch.NewSimpleFetcher(),
		Browser:     browserEngine(cfg),
		Stealth:     stealthEngine(cfg),
		Fallbacks:   fallbackChain(cfg),
		RaceTimeout: time.Duration(cfg.Browser.RaceAfterMs) * time.Millisecond,
	})

	var snapshots *changetrack.Store
	if cfg.Snapshot.Dir != "" {
		var err error
		snapshots, err = changetrack.NewStore(cfg.Snapshot.Dir)
		if err != nil {
			return nil, err
		}
	}

	extractor, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	return peel.New(peel.Config{
		Cache:      c,
		Dispatcher: dispatcher,
		DomainMem:  domainMem,
		Snapshots:  snapshots,
		Extractor:  extractor,
	}), nil
}

func browserEngine(cfg *config.Config) fetch.Engine {
	if !cfg.Browser.Enabled {
		return nil
	}
	return fetch.NewBrowserFetcher()
}

func stealthEngine(cfg *config.Config) fetch.Engine {
	if !cfg.Stealth.Enabled {
		return nil
	}
	return fetch.NewStealthFetcher()
}

func fallbackChain(cfg *config.Config) []fetch.Engine {
	var chain []fetch.Engine
	if cfg.Fallbacks.CFWorker.Enabled {
		chain = append(chain, fetch.NewCFWorkerFetcher(cfg.Fallbacks.CFWorker.URL, cfg.Fallbacks.CFWorker.Token))
	}
	if cfg.Fallbacks.PeelTLS.Enabled {
		chain = append(chain, fetch.NewPeelTLSFetcher())
	}
	if cfg.Fallbacks.GoogleCache.Enabled {
		chain = append(chain, fetch.NewGoogleCacheFetcher())
	}
	return chain
}

// buildExtractor wraps an llmx.Client in peel's Extractor adapter when a
// default provider is configured; nil falls back to the heuristic
// auto-extractor inside the orchestrator.
func buildExtractor(cfg *config.Config) (peel.Extractor, error) {
	if cfg.LLM.DefaultProvider == "" {
		return nil, nil
	}

	client, _, err := llmx.NewClient(llmx.Config{
		DefaultProvider: llmx.Provider(cfg.LLM.DefaultProvider),
		Timeout:         time.Duration(cfg.LLM.TimeoutMs) * time.Millisecond,
		OpenAI: llmx.ProviderConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: llmx.ProviderConfig{
			APIKey: cfg.LLM.Anthropic.APIKey,
			Model:  cfg.LLM.Anthropic.Model,
		},
		Google: llmx.ProviderConfig{
			APIKey: cfg.LLM.Google.APIKey,
			Model:  cfg.LLM.Google.Model,
		},
	}, "")
	if err != nil {
		return nil, err
	}

	return llmx.NewAdapter(client), nil
}
