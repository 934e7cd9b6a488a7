package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"jobapply-engine/internal/domain"
)

// FileSource reads listings from a local JSON or YAML file holding either a
// bare array or an object with a "listings" key.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

func (f *FileSource) Name() string { return "file:" + filepath.Base(f.Path) }

func (f *FileSource) Fetch(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return Result{}, err
	}

	var ls []domain.Listing
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".yml", ".yaml":
		ls, err = decodeYAML(b)
	default:
		ls, err = decodeListings(b)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", f.Path, err)
	}
	for i := range ls {
		if ls[i].Source == "" {
			ls[i].Source = f.Name()
		}
	}
	return Result{Source: f.Name(), Listings: ls}, nil
}

type listingsEnvelope struct {
	Listings []domain.Listing `json:"listings" yaml:"listings"`
	Jobs     []domain.Listing `json:"jobs" yaml:"jobs"`
}

// decodeListings accepts a JSON array or a {"listings": [...]} / {"jobs": [...]}
// envelope.
func decodeListings(b []byte) ([]domain.Listing, error) {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var ls []domain.Listing
		if err := json.Unmarshal(b, &ls); err != nil {
			return nil, err
		}
		return ls, nil
	}
	var env listingsEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	return append(env.Listings, env.Jobs...), nil
}

func decodeYAML(b []byte) ([]domain.Listing, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var ls []domain.Listing
		if err := node.Decode(&ls); err != nil {
			return nil, err
		}
		return ls, nil
	}
	var env listingsEnvelope
	if err := node.Decode(&env); err != nil {
		return nil, err
	}
	return append(env.Listings, env.Jobs...), nil
}
