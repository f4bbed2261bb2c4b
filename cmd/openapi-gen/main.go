// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ringsense/ringsense/internal/entity"
	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/server"
	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

func main() {
	outPath := "api/openapi/spec.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	spec, err := generateSpec()
	if err == nil && isYAML(outPath) {
		spec, err = toYAML(spec)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

// generateSpec creates a server with all routes registered and extracts the
// OpenAPI document huma builds from the handler types.
func generateSpec() ([]byte, error) {
	svc, err := server.NewServices(stubEntities{}, stubFlows{}, stubEntries{})
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, svc)
	if err != nil {
		return nil, rserr.Wrap(err, rserr.CodeCLISetupFailure, "creating server")
	}

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// toYAML re-encodes a JSON document as block-style YAML, keeping key order.
func toYAML(doc []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(doc, &node); err != nil {
		return nil, rserr.Wrap(err, rserr.CodeCLIResponseInvalid, "parsing generated spec")
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// No-op service stubs for spec generation. Methods are never called.

type stubEntities struct{}

func (stubEntities) Entities() []entity.Entity { return nil }
func (stubEntities) Get(string) (entity.Entity, error) {
	return nil, nil
}

type stubFlows struct{}

func (stubFlows) StartSetup(context.Context, *flow.Input) (*flow.Result, error) { return nil, nil }
func (stubFlows) StartOptionsEdit(context.Context, string, *flow.Input) (*flow.Result, error) {
	return nil, nil
}
func (stubFlows) RemoveEntry(context.Context, string) error { return nil }

type stubEntries struct{}

func (stubEntries) List(context.Context, store.ListOpts) ([]*store.ConfigEntry, error) {
	return nil, nil
}
