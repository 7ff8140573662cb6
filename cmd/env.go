package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/analyze"
	"github.com/sells-group/outreach-cli/internal/generate"
	"github.com/sells-group/outreach-cli/internal/kb"
	"github.com/sells-group/outreach-cli/internal/pipeline"
	"github.com/sells-group/outreach-cli/pkg/scraper"
	"github.com/sells-group/outreach-cli/pkg/textgen"
)

// pipelineEnv holds the initialized store, clients, and pipeline shared
// by the run/batch/serve commands.
type pipelineEnv struct {
	Store    kb.Store
	LLM      textgen.Client
	Scraper  scraper.Scraper
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Scraper != nil {
		_ = pe.Scraper.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (kb.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "outreach.db"
		}
		return kb.NewSQLite(path)
	case "postgres":
		return kb.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, LLM client, and browser scraper, and
// builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, offering string) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	llm := textgen.NewClient(cfg.LLM.BaseURL)
	log := zap.L()

	browser := scraper.NewBrowser(log,
		scraper.WithAuthCookie(cfg.Scraper.AuthCookie),
		scraper.WithHeadless(cfg.Scraper.Headless),
		scraper.WithRateLimit(time.Duration(cfg.Scraper.RateLimitSecs)*time.Second),
		scraper.WithScrapeTimeout(time.Duration(cfg.Scraper.TimeoutSecs)*time.Second),
	)

	p := pipeline.New(
		browser,
		analyze.NewAnalyzer(llm, log),
		generate.NewGenerator(llm, log),
		st,
		offering,
		log,
	)

	return &pipelineEnv{
		Store:    st,
		LLM:      llm,
		Scraper:  browser,
		Pipeline: p,
	}, nil
}
