package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/pathutil"
)

// Resolver turns user-facing paths into nodes. Paths are resolved through
// the search endpoint with an exact parent-path match, so one round of
// pagination resolves any depth.
type Resolver struct {
	svc     *Service
	baseURL string
}

// NewResolver builds a resolver on top of a node service.
func NewResolver(svc *Service) *Resolver {
	return &Resolver{svc: svc, baseURL: svc.client.Config().TargetURL}
}

// NodeFromPath resolves a path like "host/room/folder/name" to its node.
// Exactly one node must match; zero matches and ambiguous matches both
// surface as ErrNodeNotFound. The root path has no node id and is rejected.
func (r *Resolver) NodeFromPath(ctx context.Context, path string) (models.Node, error) {
	parsed, err := pathutil.Parse(path, r.baseURL)
	if err != nil {
		return models.Node{}, err
	}
	if parsed.Name == "" {
		return models.Node{}, fmt.Errorf("%w: root has no node id", api.ErrInvalidPath)
	}
	return r.resolve(ctx, parsed)
}

// ParentFromPath resolves the parent of path. A top-level name resolves to
// the zero node, meaning the root.
func (r *Resolver) ParentFromPath(ctx context.Context, path string) (models.Node, error) {
	parsed, err := pathutil.Parse(path, r.baseURL)
	if err != nil {
		return models.Node{}, err
	}
	if parsed.Depth == 0 {
		return models.Node{}, nil
	}
	parent, err := pathutil.Parse(parsed.ParentPath, "")
	if err != nil {
		return models.Node{}, err
	}
	return r.resolve(ctx, parent)
}

func (r *Resolver) resolve(ctx context.Context, parsed pathutil.ParsedPath) (models.Node, error) {
	matches, err := r.svc.Search(ctx, SearchOptions{
		SearchString: parsed.Name,
		DepthLevel:   -1,
		Filter:       childrenFilter(parsed.ParentPath),
	})
	if err != nil {
		return models.Node{}, err
	}

	// The search endpoint substring-matches; keep exact names only.
	var exact []models.Node
	for _, n := range matches {
		if n.Name == parsed.Name {
			exact = append(exact, n)
		}
	}

	switch len(exact) {
	case 1:
		return exact[0], nil
	case 0:
		return models.Node{}, fmt.Errorf("%w: %s", api.ErrNodeNotFound, parsed.String())
	default:
		log.Warn().
			Str("path", parsed.String()).
			Int("matches", len(exact)).
			Msg("path is ambiguous, refusing to pick one")
		return models.Node{}, fmt.Errorf("%w: %s matches %d nodes", api.ErrNodeNotFound, parsed.String(), len(exact))
	}
}

// Glob expands a wildcard path ("room/sub/*.txt") to the matching nodes in
// the parent. Non-wildcard paths come back as a single-element slice.
func (r *Resolver) Glob(ctx context.Context, path string) ([]models.Node, error) {
	parsed, err := pathutil.Parse(path, r.baseURL)
	if err != nil {
		return nil, err
	}
	if !pathutil.IsSearchQuery(parsed.Name) {
		node, err := r.resolve(ctx, parsed)
		if err != nil {
			return nil, err
		}
		return []models.Node{node}, nil
	}
	return r.svc.Search(ctx, SearchOptions{
		SearchString: parsed.Name,
		DepthLevel:   -1,
		Filter:       childrenFilter(parsed.ParentPath),
	})
}
