// Command sveltekb is a searchable knowledge base for Svelte 5.
//
// It syncs a curated corpus of concept Q&A and code-pattern examples into
// a full-text index and serves synonym-expanded search over MCP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/sveltekb/sveltekb/internal/config"
	"github.com/sveltekb/sveltekb/internal/corpus"
	"github.com/sveltekb/sveltekb/internal/mcp"
	"github.com/sveltekb/sveltekb/internal/search"
	"github.com/sveltekb/sveltekb/internal/store"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "load":
		err = runLoad(os.Args[2:])
	case "search":
		err = runSearch(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("sveltekb %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sveltekb - Svelte 5 knowledge base with synonym-expanded search

Usage:
  sveltekb serve  [--knowledge <file>] [--examples <file>] [--db <path>] [--backend sqlite|memory]
  sveltekb load   [--knowledge <file>] [--examples <file>] [--db <path>]
  sveltekb search <query> [--kind knowledge|examples] [--limit N] [--boost] [--db <path>]
  sveltekb stats  [--db <path>]
  sveltekb version`)
}

// cliFlags is the subset of flags shared across commands.
type cliFlags struct {
	config    string
	db        string
	backend   string
	knowledge string
	examples  string
	synonyms  string
	kind      string
	limit     int
	boost     bool
	args      []string
}

func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{limit: 10}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() (string, error) {
			i++
			if i >= len(args) {
				return "", fmt.Errorf("flag %s requires a value", arg)
			}
			return args[i], nil
		}

		var err error
		switch {
		case arg == "--config":
			f.config, err = next()
		case arg == "--db":
			f.db, err = next()
		case arg == "--backend":
			f.backend, err = next()
		case arg == "--knowledge":
			f.knowledge, err = next()
		case arg == "--examples":
			f.examples, err = next()
		case arg == "--synonyms":
			f.synonyms, err = next()
		case arg == "--kind":
			f.kind, err = next()
		case arg == "--limit":
			var v string
			if v, err = next(); err == nil {
				f.limit, err = strconv.Atoi(v)
			}
		case arg == "--boost":
			f.boost = true
		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown flag: %s", arg)
		default:
			f.args = append(f.args, arg)
		}
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

func resolve(f *cliFlags) (config.ResolvedConfig, error) {
	return config.Resolve(config.ResolveOptions{
		ConfigPath:   f.config,
		CLIDBPath:    f.db,
		CLIBackend:   f.backend,
		CLIKnowledge: f.knowledge,
		CLIExamples:  f.examples,
		CLISynonyms:  f.synonyms,
	})
}

func loadCorpus(cfg config.ResolvedConfig) ([]corpus.KnowledgeRecord, []corpus.ExampleRecord, error) {
	var knowledge []corpus.KnowledgeRecord
	var examples []corpus.ExampleRecord
	var err error

	if cfg.KnowledgePath.Value != "" {
		knowledge, err = corpus.LoadKnowledgeFile(cfg.KnowledgePath.Value)
		if err != nil {
			return nil, nil, err
		}
	}
	if cfg.ExamplesPath.Value != "" {
		examples, err = corpus.LoadExamplesFile(cfg.ExamplesPath.Value)
		if err != nil {
			return nil, nil, err
		}
	}
	return knowledge, examples, nil
}

// buildDictionary resolves the effective synonym dictionary. A synonyms
// file wins; otherwise a dictionary persisted in the store is reused, so
// user synonyms survive across processes without re-passing the flag.
func buildDictionary(ctx context.Context, cfg config.ResolvedConfig, st *store.Store) (*search.Dictionary, error) {
	if cfg.SynonymsPath.Value != "" {
		return search.NewDictionaryFromFile(cfg.SynonymsPath.Value)
	}
	if st != nil {
		entries, err := st.LoadSynonyms(ctx)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return search.NewDictionaryFromEntries(entries), nil
		}
	}
	return search.NewDictionary(), nil
}

func runServe(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	knowledge, examples, err := loadCorpus(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var backend search.Backend
	var st *store.Store
	var dict *search.Dictionary

	switch cfg.Backend.Value {
	case config.BackendMemory:
		if dict, err = buildDictionary(ctx, cfg, nil); err != nil {
			return err
		}
		matcher, err := search.NewMatcher()
		if err != nil {
			return err
		}
		defer matcher.Close()
		if err := matcher.Load(knowledge, examples); err != nil {
			return err
		}
		backend = matcher
	default:
		st, err = store.Open(store.Config{DBPath: cfg.DBPath.Value})
		if err != nil {
			return err
		}
		defer st.Close()

		// A sync failure is fatal: serving stale or partial data
		// silently is worse than not starting.
		report, err := st.Sync(ctx, knowledge, examples, cfg.KnowledgePath.Value)
		if err != nil {
			return fmt.Errorf("corpus sync: %w", err)
		}
		for _, ve := range report.Invalid {
			fmt.Fprintf(os.Stderr, "Warning: skipped %v\n", &ve)
		}

		if dict, err = buildDictionary(ctx, cfg, st); err != nil {
			return err
		}
		if err := st.SaveSynonyms(ctx, dict.Entries()); err != nil {
			return err
		}
		backend = search.NewFTSBackend(st)
	}

	engine := search.New(backend, search.WithDictionary(dict))
	srv := mcp.NewServer(mcp.ServerConfig{Engine: engine, Store: st, Version: version})
	return mcpserver.ServeStdio(srv)
}

func runLoad(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	knowledge, examples, err := loadCorpus(cfg)
	if err != nil {
		return err
	}
	if len(knowledge) == 0 && len(examples) == 0 {
		return fmt.Errorf("no corpus files configured (use --knowledge/--examples)")
	}

	st, err := store.Open(store.Config{DBPath: cfg.DBPath.Value})
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	report, err := st.Sync(ctx, knowledge, examples, cfg.KnowledgePath.Value)
	if err != nil {
		return err
	}

	dict, err := buildDictionary(ctx, cfg, st)
	if err != nil {
		return err
	}
	if err := st.SaveSynonyms(ctx, dict.Entries()); err != nil {
		return err
	}

	if report.NoOp {
		fmt.Println("Corpus unchanged; nothing to do.")
		return nil
	}
	fmt.Printf("Sync complete: %d inserted, %d updated, %d skipped\n",
		report.Inserted, report.Updated, report.Skipped)
	for _, ve := range report.Invalid {
		fmt.Fprintf(os.Stderr, "Warning: skipped %v\n", &ve)
	}
	return nil
}

func runSearch(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) == 0 {
		return fmt.Errorf("usage: sveltekb search <query> [--kind knowledge|examples] [--limit N] [--boost]")
	}
	query := strings.Join(f.args, " ")

	kind := corpus.KindKnowledge
	if f.kind != "" {
		kind, err = corpus.ParseKind(f.kind)
		if err != nil {
			return err
		}
	}

	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	st, err := store.Open(store.Config{DBPath: cfg.DBPath.Value})
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	dict, err := buildDictionary(ctx, cfg, st)
	if err != nil {
		return err
	}
	engine := search.New(search.NewFTSBackend(st), search.WithDictionary(dict))
	var out interface{}
	if f.boost {
		opts := search.DefaultBoostOptions()
		opts.Limit = f.limit
		out, err = engine.SearchWithBoost(ctx, kind, query, opts)
	} else {
		out, err = engine.Search(ctx, kind, query, f.limit)
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runStats(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	st, err := store.Open(store.Config{DBPath: cfg.DBPath.Value})
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	md, err := st.SyncMetadata(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Knowledge items: %d\n", stats.KnowledgeCount)
	fmt.Printf("Example items:   %d\n", stats.ExamplesCount)
	fmt.Printf("Database size:   %d bytes\n", stats.DBSizeBytes)
	if !md.LastSyncTime.IsZero() {
		fmt.Printf("Last sync:       %s (%s)\n", md.LastSyncTime.Format("2006-01-02 15:04:05"), md.SourceName)
	}
	return nil
}
