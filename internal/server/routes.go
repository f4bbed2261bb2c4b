// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ringsense/ringsense/internal/entity"
	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
	"github.com/ringsense/ringsense/pkg/health"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Service status",
		Tags:        []string{"system"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-entities",
		Method:      http.MethodGet,
		Path:        "/api/v1/entities",
		Summary:     "List sensor entities",
		Tags:        []string{"entities"},
	}, s.handleListEntities)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-entity",
		Method:      http.MethodGet,
		Path:        "/api/v1/entities/{id}",
		Summary:     "Get one sensor entity",
		Tags:        []string{"entities"},
		Errors:      []int{http.StatusNotFound},
	}, s.handleGetEntity)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-entity",
		Method:      http.MethodPost,
		Path:        "/api/v1/entities/{id}/update",
		Summary:     "Poll one sensor entity now",
		Tags:        []string{"entities"},
		Errors:      []int{http.StatusNotFound},
	}, s.handleUpdateEntity)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-entries",
		Method:      http.MethodGet,
		Path:        "/api/v1/entries",
		Summary:     "List config entries",
		Tags:        []string{"entries"},
	}, s.handleListEntries)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-entry",
		Method:        http.MethodDelete,
		Path:          "/api/v1/entries/{id}",
		Summary:       "Remove a config entry and its entities",
		Tags:          []string{"entries"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, s.handleDeleteEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "setup-form",
		Method:      http.MethodGet,
		Path:        "/api/v1/flows/setup",
		Summary:     "Get the setup form",
		Tags:        []string{"flows"},
	}, s.handleSetupForm)

	huma.Register(s.api, huma.Operation{
		OperationID: "setup-submit",
		Method:      http.MethodPost,
		Path:        "/api/v1/flows/setup",
		Summary:     "Submit the access token",
		Tags:        []string{"flows"},
		Errors:      []int{http.StatusBadRequest},
	}, s.handleSetupSubmit)

	huma.Register(s.api, huma.Operation{
		OperationID: "options-form",
		Method:      http.MethodGet,
		Path:        "/api/v1/entries/{id}/options",
		Summary:     "Get the options form",
		Tags:        []string{"flows"},
		Errors:      []int{http.StatusNotFound},
	}, s.handleOptionsForm)

	huma.Register(s.api, huma.Operation{
		OperationID: "options-submit",
		Method:      http.MethodPost,
		Path:        "/api/v1/entries/{id}/options",
		Summary:     "Replace the access token",
		Tags:        []string{"flows"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, s.handleOptionsSubmit)
}

// --- Request/Response types for huma ---

// EntityBody is the JSON view of one entity.
type EntityBody struct {
	ID          string          `json:"id" example:"oura_ring_sleep"`
	Name        string          `json:"name" example:"Oura Ring Sleep"`
	Available   bool            `json:"available"`
	Value       *float64        `json:"value" doc:"Latest score, null when unknown"`
	Stale       bool            `json:"stale" doc:"Last 200 response had no usable score"`
	LastUpdated *time.Time      `json:"last_updated,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Attributes  map[string]any  `json:"attributes" doc:"Last fetched document"`
	Health      *health.Metrics `json:"health,omitempty"`
}

// EntryBody is the JSON view of a config entry. Credentials are never
// returned.
type EntryBody struct {
	ID         string    `json:"id"`
	Domain     string    `json:"domain" example:"oura_ring"`
	Title      string    `json:"title" example:"Oura Ring"`
	HasOptions bool      `json:"has_options"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type entityIDInput struct {
	ID string `path:"id" doc:"Entity unique ID"`
}

type entryIDInput struct {
	ID string `path:"id" doc:"Config entry ID"`
}

type entityOutput struct {
	Body EntityBody
}

type listEntitiesOutput struct {
	Body struct {
		Entities []EntityBody `json:"entities"`
	}
}

type listEntriesOutput struct {
	Body struct {
		Entries []EntryBody `json:"entries"`
	}
}

type flowOutput struct {
	Body *flow.Result
}

type setupSubmitInput struct {
	Body map[string]any `doc:"Form values, {\"access_token\": \"...\"}"`
}

type optionsSubmitInput struct {
	ID   string         `path:"id" doc:"Config entry ID"`
	Body map[string]any `doc:"Form values, {\"access_token\": \"...\"}"`
}

type statusOutput struct {
	Body struct {
		Status        string  `json:"status" example:"ok"`
		Version       string  `json:"version"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Entities      int     `json:"entities"`
		Available     int     `json:"available"`
		Entries       int     `json:"entries"`
	}
}

// healthReporter is implemented by pollers.
type healthReporter interface {
	Health() health.Metrics
}

func toEntityBody(e entity.Entity) EntityBody {
	st := e.State()
	body := EntityBody{
		ID:         e.UniqueID(),
		Name:       e.Name(),
		Available:  st.Available,
		Value:      st.Value,
		Stale:      st.Stale,
		LastError:  st.LastError,
		Attributes: st.Attributes,
	}
	if !st.LastUpdated.IsZero() {
		t := st.LastUpdated
		body.LastUpdated = &t
	}
	if body.Attributes == nil {
		body.Attributes = map[string]any{}
	}
	if hr, ok := e.(healthReporter); ok {
		h := hr.Health()
		body.Health = &h
	}
	return body
}

// toHTTPError maps a coded error onto a huma error response.
func toHTTPError(err error, msg string) error {
	status := rserr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error(msg, "error", err, "code", rserr.CodeOf(err))
		return huma.NewError(status, msg)
	}
	return huma.NewError(status, err.Error())
}

// --- Handlers ---

func (s *Server) handleStatus(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	entries, err := s.services.entries.List(ctx, store.ListOpts{})
	if err != nil {
		return nil, toHTTPError(err, "listing entries")
	}

	out := &statusOutput{}
	out.Body.Status = "ok"
	out.Body.Version = s.cfg.Version
	out.Body.UptimeSeconds = time.Since(s.started).Seconds()
	out.Body.Entries = len(entries)
	for _, e := range s.services.entities.Entities() {
		out.Body.Entities++
		if e.State().Available {
			out.Body.Available++
		}
	}
	return out, nil
}

func (s *Server) handleListEntities(_ context.Context, _ *struct{}) (*listEntitiesOutput, error) {
	out := &listEntitiesOutput{}
	out.Body.Entities = []EntityBody{}
	for _, e := range s.services.entities.Entities() {
		out.Body.Entities = append(out.Body.Entities, toEntityBody(e))
	}
	return out, nil
}

func (s *Server) handleGetEntity(_ context.Context, input *entityIDInput) (*entityOutput, error) {
	e, err := s.services.entities.Get(input.ID)
	if err != nil {
		return nil, toHTTPError(err, "getting entity")
	}
	return &entityOutput{Body: toEntityBody(e)}, nil
}

func (s *Server) handleUpdateEntity(ctx context.Context, input *entityIDInput) (*entityOutput, error) {
	e, err := s.services.entities.Get(input.ID)
	if err != nil {
		return nil, toHTTPError(err, "getting entity")
	}
	if err := e.Update(ctx); err != nil {
		return nil, huma.Error504GatewayTimeout("update cancelled", err)
	}
	return &entityOutput{Body: toEntityBody(e)}, nil
}

func (s *Server) handleListEntries(ctx context.Context, _ *struct{}) (*listEntriesOutput, error) {
	entries, err := s.services.entries.List(ctx, store.ListOpts{})
	if err != nil {
		return nil, toHTTPError(err, "listing entries")
	}

	out := &listEntriesOutput{}
	out.Body.Entries = make([]EntryBody, 0, len(entries))
	for _, e := range entries {
		out.Body.Entries = append(out.Body.Entries, EntryBody{
			ID:         e.ID,
			Domain:     e.Domain,
			Title:      e.Title,
			HasOptions: len(e.Options) > 0,
			CreatedAt:  e.CreatedAt,
			UpdatedAt:  e.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, input *entryIDInput) (*struct{}, error) {
	if err := s.services.flows.RemoveEntry(flow.WithActor(ctx, "api"), input.ID); err != nil {
		return nil, toHTTPError(err, "removing entry")
	}
	return nil, nil
}

func (s *Server) handleSetupForm(ctx context.Context, _ *struct{}) (*flowOutput, error) {
	res, err := s.services.flows.StartSetup(ctx, nil)
	if err != nil {
		return nil, toHTTPError(err, "starting setup")
	}
	return &flowOutput{Body: res}, nil
}

func (s *Server) handleSetupSubmit(ctx context.Context, input *setupSubmitInput) (*flowOutput, error) {
	in, err := flow.InputFromMap(input.Body)
	if err != nil {
		return nil, toHTTPError(err, "decoding setup form")
	}
	res, err := s.services.flows.StartSetup(flow.WithActor(ctx, "api"), in)
	if err != nil {
		return nil, toHTTPError(err, "submitting setup")
	}
	slog.Info("config entry stored via api", "entry_id", res.EntryID)
	return &flowOutput{Body: redact(res)}, nil
}

func (s *Server) handleOptionsForm(ctx context.Context, input *entryIDInput) (*flowOutput, error) {
	res, err := s.services.flows.StartOptionsEdit(ctx, input.ID, nil)
	if err != nil {
		return nil, toHTTPError(err, "starting options")
	}
	if len(s.cfg.Tokens) == 0 {
		res = withoutDefaults(res)
	}
	return &flowOutput{Body: res}, nil
}

func (s *Server) handleOptionsSubmit(ctx context.Context, input *optionsSubmitInput) (*flowOutput, error) {
	in, err := flow.InputFromMap(input.Body)
	if err != nil {
		return nil, toHTTPError(err, "decoding options form")
	}
	res, err := s.services.flows.StartOptionsEdit(flow.WithActor(ctx, "api"), input.ID, in)
	if err != nil {
		return nil, toHTTPError(err, "submitting options")
	}
	slog.Info("config entry options updated via api", "entry_id", res.EntryID)
	return &flowOutput{Body: redact(res)}, nil
}

// redact drops submitted credential values from a finished flow result.
func redact(res *flow.Result) *flow.Result {
	out := *res
	out.Data = nil
	return &out
}

// withoutDefaults drops secret prefills. The stored token is only served
// back when the API requires a bearer token.
func withoutDefaults(res *flow.Result) *flow.Result {
	out := *res
	out.Fields = make([]flow.Field, len(res.Fields))
	for i, f := range res.Fields {
		if f.Secret {
			f.Default = ""
		}
		out.Fields[i] = f
	}
	return &out
}
