// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repograph/internal/apperr"
	"github.com/kraklabs/repograph/pkg/entrypoint"
	"github.com/kraklabs/repograph/pkg/flow"
	"github.com/kraklabs/repograph/pkg/graph"
	"github.com/kraklabs/repograph/pkg/metrics"
	"github.com/kraklabs/repograph/pkg/store"
)

// server bundles the app with the graph service every HTTP handler shares.
type server struct {
	app   *app
	graph *graph.Service
}

// runServe starts the RESTful surface: one route per core operation,
// Postgres-backed, stateless across requests, served off a single
// net/http.ServeMux using Go 1.22's method+pattern routing.
func runServe(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "Listen address")
	_ = fs.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := mustApp(ctx, globals)
	defer a.close()

	srv := &server{app: a, graph: graph.New(a.store)}

	mux := http.NewServeMux()
	srv.routes(mux)

	httpSrv := &http.Server{Addr: *addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serve.listening", "addr", *addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			apperr.Fatal(apperr.InfraFailure("http server failed", *addr, err), globals.JSON)
		}
	case <-ctx.Done():
		a.logger.Info("serve.shutting_down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *server) routes(mux *http.ServeMux) {
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /v1/orgs", s.handleCreateOrg)
	mux.HandleFunc("GET /v1/orgs", s.handleListOrgs)
	mux.HandleFunc("DELETE /v1/orgs/{id}", s.handleDeleteOrg)

	mux.HandleFunc("POST /v1/repos", s.handleCreateRepo)
	mux.HandleFunc("GET /v1/repos", s.handleListRepos)
	mux.HandleFunc("GET /v1/repos/{id}", s.handleGetRepo)
	mux.HandleFunc("DELETE /v1/repos/{id}", s.handleDeleteRepo)
	mux.HandleFunc("POST /v1/repos/{id}/reparse", s.handleReparseRepo)

	mux.HandleFunc("GET /v1/graph/{symbol}/downstream", s.handleGraphDownstream)
	mux.HandleFunc("GET /v1/graph/{symbol}/upstream", s.handleGraphUpstream)
	mux.HandleFunc("GET /v1/graph/{symbol}/context", s.handleGraphContext)

	mux.HandleFunc("POST /v1/repos/{id}/entrypoints/detect", s.handleDetectEntryPoints)
	mux.HandleFunc("GET /v1/repos/{id}/entrypoints", s.handleListEntryPoints)

	mux.HandleFunc("POST /v1/entrypoints/{id}/flow", s.handleGenerateFlow)
	mux.HandleFunc("GET /v1/entrypoints/{id}/flow", s.handleGetFlow)
}

// writeJSON writes v as the response body with status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as JSON: apperr.Error kinds map to their
// documented status code, anything else is an unexpected 500.
func writeError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		writeJSON(w, ae.Kind.StatusCode(), ae.ToJSON())
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, 404, apperr.NotFound("not found", "").ToJSON())
		return
	}
	writeJSON(w, 500, apperr.Internal("unexpected failure", err).ToJSON())
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperr.InputInvalid("request body is required", "", "send a JSON body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InputInvalid("malformed JSON body", err.Error(), "send valid JSON")
	}
	return nil
}

// --- organizations ---

func (s *server) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, apperr.InputInvalid("name is required", "", ""))
		return
	}
	org, err := s.app.store.Org.Create(r.Context(), req.Name, req.Description, nil)
	if err != nil {
		writeError(w, apperr.InfraFailure("failed to create organization", req.Name, err))
		return
	}
	writeJSON(w, 201, org)
}

func (s *server) handleListOrgs(w http.ResponseWriter, r *http.Request) {
	orgs, err := s.app.store.Org.List(r.Context())
	if err != nil {
		writeError(w, apperr.InfraFailure("failed to list organizations", "", err))
		return
	}
	writeJSON(w, 200, orgs)
}

func (s *server) handleDeleteOrg(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.app.store.Org.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(204)
}

// --- repositories ---

func (s *server) handleCreateRepo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrgID       string `json:"org_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Path        string `json:"path"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.OrgID == "" || req.Path == "" {
		writeError(w, apperr.InputInvalid("org_id and path are required", "", ""))
		return
	}
	repo, err := s.app.store.Repository.Create(r.Context(), req.OrgID, req.Name, req.Description, req.Path)
	if err != nil {
		writeError(w, apperr.InfraFailure("failed to create repository", req.Path, err))
		return
	}
	writeJSON(w, 201, repo)
}

func (s *server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		writeError(w, apperr.InputInvalid("org_id query parameter is required", "", ""))
		return
	}
	repos, err := s.app.store.Repository.ListByOrg(r.Context(), orgID)
	if err != nil {
		writeError(w, apperr.InfraFailure("failed to list repositories", orgID, err))
		return
	}
	writeJSON(w, 200, repos)
}

func (s *server) handleGetRepo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	repo, err := s.app.store.Repository.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, repo)
}

func (s *server) handleDeleteRepo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.app.store.Repository.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(204)
}

// handleReparseRepo enqueues a job and returns 202: parsing happens
// asynchronously on a worker, not on this request.
func (s *server) handleReparseRepo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.app.store.Job.Create(r.Context(), id)
	if err != nil {
		writeError(w, apperr.InfraFailure("failed to enqueue parse job", id, err))
		return
	}
	writeJSON(w, 202, job)
}

// --- graph ---

// clampGraphDepth bounds a requested traversal depth to [1,10]. The graph
// service itself passes maxDepth through to the store unclamped; this is
// the boundary that enforces the advertised range for API callers.
func clampGraphDepth(d int) int {
	if d < 1 {
		return 1
	}
	if d > 10 {
		return 10
	}
	return d
}

func (s *server) handleGraphDownstream(w http.ResponseWriter, r *http.Request) {
	s.handleGraphDirection(w, r, true)
}

func (s *server) handleGraphUpstream(w http.ResponseWriter, r *http.Request) {
	s.handleGraphDirection(w, r, false)
}

func (s *server) handleGraphDirection(w http.ResponseWriter, r *http.Request, downstream bool) {
	symbolID := r.PathValue("symbol")
	depth := 5
	if d := r.URL.Query().Get("depth"); d != "" {
		if _, err := fmt.Sscanf(d, "%d", &depth); err != nil {
			writeError(w, apperr.InputInvalid("depth must be an integer", d, ""))
			return
		}
	}
	depth = clampGraphDepth(depth)
	var nodes []graph.Node
	var err error
	if downstream {
		nodes, err = s.graph.Downstream(r.Context(), symbolID, depth)
	} else {
		nodes, err = s.graph.Upstream(r.Context(), symbolID, depth)
	}
	if err != nil {
		writeError(w, apperr.InfraFailure("graph traversal failed", symbolID, err))
		return
	}
	writeJSON(w, 200, nodes)
}

func (s *server) handleGraphContext(w http.ResponseWriter, r *http.Request) {
	symbolID := r.PathValue("symbol")
	upstreamDepth, downstreamDepth := 5, 5
	if d := r.URL.Query().Get("upstream_depth"); d != "" {
		_, _ = fmt.Sscanf(d, "%d", &upstreamDepth)
	}
	if d := r.URL.Query().Get("downstream_depth"); d != "" {
		_, _ = fmt.Sscanf(d, "%d", &downstreamDepth)
	}
	upstreamDepth, downstreamDepth = clampGraphDepth(upstreamDepth), clampGraphDepth(downstreamDepth)
	sc, err := s.graph.SymbolContext(r.Context(), symbolID, upstreamDepth, downstreamDepth)
	if err != nil {
		writeError(w, apperr.InfraFailure("graph context failed", symbolID, err))
		return
	}
	writeJSON(w, 200, sc)
}

// --- entry points ---

func (s *server) handleDetectEntryPoints(w http.ResponseWriter, r *http.Request) {
	repoID := r.PathValue("id")
	var req struct {
		OrgID         string  `json:"org_id"`
		ForceRedetect bool    `json:"force_redetect"`
		MinConfidence float64 `json:"min_confidence"`
	}
	_ = decodeBody(r, &req) // an empty body is a valid all-defaults request

	llm, err := s.app.llmClient(r.Context(), req.OrgID)
	if err != nil {
		writeError(w, apperr.LLMFailure("failed to resolve LLM client", repoID, err))
		return
	}
	cfg := entrypoint.Config{MinConfidence: req.MinConfidence}
	svc := entrypoint.New(s.app.store, llm, cfg, s.app.logger)

	result, err := svc.Detect(r.Context(), repoID, req.ForceRedetect)
	if err != nil {
		writeError(w, apperr.LLMFailure("entry point detection failed", repoID, err))
		return
	}
	writeJSON(w, 200, result)
}

func (s *server) handleListEntryPoints(w http.ResponseWriter, r *http.Request) {
	repoID := r.PathValue("id")
	eps, err := s.app.store.EntryPoint.ListConfirmedByRepo(r.Context(), repoID)
	if err != nil {
		writeError(w, apperr.InfraFailure("failed to list entry points", repoID, err))
		return
	}
	writeJSON(w, 200, eps)
}

// --- flow ---

func (s *server) handleGenerateFlow(w http.ResponseWriter, r *http.Request) {
	entryPointID := r.PathValue("id")
	var req struct {
		RepoID string `json:"repo_id"`
		OrgID  string `json:"org_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.RepoID == "" {
		writeError(w, apperr.InputInvalid("repo_id is required", "", ""))
		return
	}

	llm, err := s.app.llmClient(r.Context(), req.OrgID)
	if err != nil {
		writeError(w, apperr.LLMFailure("failed to resolve LLM client", entryPointID, err))
		return
	}
	svc := flow.New(s.app.store, s.graph, llm, s.app.logger)

	doc, err := svc.Generate(r.Context(), req.RepoID, entryPointID)
	if err != nil {
		writeError(w, apperr.LLMFailure("flow generation failed", entryPointID, err))
		return
	}
	writeJSON(w, 200, doc)
}

func (s *server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	entryPointID := r.PathValue("id")
	doc, err := s.app.store.Flow.GetByEntryPoint(r.Context(), entryPointID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, doc)
}
