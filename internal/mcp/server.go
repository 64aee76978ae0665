// Package mcp provides a Model Context Protocol server for sveltekb.
//
// It exposes the search core as MCP tools (search_knowledge,
// search_examples, search_boosted) and the corpus statistics as a
// resource, over stdio transport.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sveltekb/sveltekb/internal/corpus"
	"github.com/sveltekb/sveltekb/internal/search"
	"github.com/sveltekb/sveltekb/internal/store"
)

const maxSearchLimit = 50

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Engine  *search.Engine
	Store   *store.Store // nil when running on the in-memory backend
	Version string
}

// dbMu serializes tool calls. The mcp-go library dispatches handlers
// concurrently, while the core assumes calls run to completion one at a
// time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all sveltekb tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"sveltekb",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerSearchTool(s, cfg.Engine, "search_knowledge", corpus.KindKnowledge,
		"Search curated Svelte 5 concept Q&A. Queries are expanded with domain synonyms ($state, $derived, runes...) before matching.")
	registerSearchTool(s, cfg.Engine, "search_examples", corpus.KindExamples,
		"Search curated Svelte 5 code-pattern examples by instruction, input, or output text.")
	registerBoostedTool(s, cfg.Engine)
	if cfg.Store != nil {
		registerStatsTool(s, cfg.Store)
		registerStatsResource(s, cfg.Store)
	}

	return s
}

func registerSearchTool(s *server.MCPServer, engine *search.Engine, name string, kind corpus.Kind, description string) {
	tool := mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results (default: 10, max: %d)", maxSearchLimit)),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		resp, err := engine.Search(ctx, kind, query, parseLimit(req))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}

		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerBoostedTool(s *server.MCPServer, engine *search.Engine) {
	tool := mcp.NewTool("search_boosted",
		mcp.WithDescription("Search with field-weighted boost scoring: primary-field matches and rune-code content rank higher. Returns rows ordered by custom score."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithString("kind",
			mcp.Description("Corpus kind: knowledge or examples (default: knowledge)"),
			mcp.Enum("knowledge", "examples"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results (default: 10, max: %d)", maxSearchLimit)),
		),
		mcp.WithNumber("primary_boost",
			mcp.Description("Multiplier applied when the primary field matches (default: 2.0)"),
		),
		mcp.WithNumber("code_boost",
			mcp.Description("Additive term for rows containing rune code (default: 1.5)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		kind := corpus.KindKnowledge
		if kindStr, err := req.RequireString("kind"); err == nil && kindStr != "" {
			parsed, err := corpus.ParseKind(kindStr)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid kind: %v", err)), nil
			}
			kind = parsed
		}

		opts := search.DefaultBoostOptions()
		opts.Limit = parseLimit(req)
		if v, err := req.RequireFloat("primary_boost"); err == nil && v > 0 {
			opts.PrimaryFieldBoost = v
		}
		if v, err := req.RequireFloat("code_boost"); err == nil && v > 0 {
			opts.CodeBoost = v
		}

		results, err := engine.SearchWithBoost(ctx, kind, query, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}

		data, err := json.MarshalIndent(map[string]interface{}{
			"query":         query,
			"total_results": len(results),
			"results":       results,
		}, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("kb_stats",
		mcp.WithDescription("Corpus statistics: item counts, database size, and last sync metadata."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		data, err := statsPayload(ctx, st)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats error: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsResource(s *server.MCPServer, st *store.Store) {
	resource := mcp.NewResource(
		"sveltekb://stats",
		"Corpus Statistics",
		mcp.WithResourceDescription("Item counts, database size, and last sync metadata."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		data, err := statsPayload(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("stats resource: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func statsPayload(ctx context.Context, st *store.Store) ([]byte, error) {
	stats, err := st.Stats(ctx)
	if err != nil {
		return nil, err
	}
	md, err := st.SyncMetadata(ctx)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(map[string]interface{}{
		"knowledge_count": stats.KnowledgeCount,
		"examples_count":  stats.ExamplesCount,
		"db_size_bytes":   stats.DBSizeBytes,
		"last_sync_time":  md.LastSyncTime,
		"data_version":    md.DataVersion,
		"source_name":     md.SourceName,
	}, "", "  ")
}

func parseLimit(req mcp.CallToolRequest) int {
	limit := 10
	if v, err := req.RequireFloat("limit"); err == nil {
		n := int(v)
		if n > maxSearchLimit {
			n = maxSearchLimit
		}
		if n > 0 {
			limit = n
		}
	}
	return limit
}
