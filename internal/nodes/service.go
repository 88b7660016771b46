// Package nodes covers the node namespace: listing, search, folder and room
// creation, deletion, move/copy, and resolving user-facing paths to node ids.
package nodes

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/filter"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/pager"
)

// Service issues node API calls through a shared client.
type Service struct {
	client *api.Client
}

// NewService wraps an authenticated API client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// ListOptions narrows a listing. Zero value lists the root's direct children
// in API order.
type ListOptions struct {
	ParentID uint64
	Filter   string
	Sort     string
	// DepthLevel -1 recurses the whole subtree server-side.
	DepthLevel int
}

func (o ListOptions) query(offset, limit int64) url.Values {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("limit", strconv.FormatInt(limit, 10))
	if o.ParentID != 0 {
		q.Set("parent_id", strconv.FormatUint(o.ParentID, 10))
	}
	if o.DepthLevel != 0 {
		q.Set("depth_level", strconv.Itoa(o.DepthLevel))
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	return q
}

// List returns all children matching opts, paging through the collection.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.Node, error) {
	return pager.FetchAll(ctx, func(ctx context.Context, offset, limit int64) (pager.Page[models.Node], error) {
		var list models.NodeList
		if err := s.client.Get(ctx, "/nodes", opts.query(offset, limit), &list); err != nil {
			return pager.Page[models.Node]{}, err
		}
		return pager.Page[models.Node]{Range: list.Range, Items: list.Items}, nil
	})
}

// ListPage returns a single page, for callers that render incrementally.
func (s *Service) ListPage(ctx context.Context, opts ListOptions, offset, limit int64) (models.NodeList, error) {
	var list models.NodeList
	err := s.client.Get(ctx, "/nodes", opts.query(offset, limit), &list)
	return list, err
}

// SearchOptions describes a server-side name search.
type SearchOptions struct {
	SearchString string
	ParentID     uint64
	// DepthLevel 0 searches direct children only; -1 the whole subtree.
	DepthLevel int
	Filter     string
	Sort       string
}

func (o SearchOptions) query(offset, limit int64) url.Values {
	q := url.Values{}
	q.Set("search_string", o.SearchString)
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("limit", strconv.FormatInt(limit, 10))
	if o.ParentID != 0 {
		q.Set("parent_id", strconv.FormatUint(o.ParentID, 10))
	}
	if o.DepthLevel != 0 {
		q.Set("depth_level", strconv.Itoa(o.DepthLevel))
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	return q
}

// Search returns all nodes matching opts. SearchString supports '*' globs.
func (s *Service) Search(ctx context.Context, opts SearchOptions) ([]models.Node, error) {
	return pager.FetchAll(ctx, func(ctx context.Context, offset, limit int64) (pager.Page[models.Node], error) {
		var list models.NodeList
		if err := s.client.Get(ctx, "/nodes/search", opts.query(offset, limit), &list); err != nil {
			return pager.Page[models.Node]{}, err
		}
		return pager.Page[models.Node]{Range: list.Range, Items: list.Items}, nil
	})
}

// Get fetches a single node by id.
func (s *Service) Get(ctx context.Context, nodeID uint64) (models.Node, error) {
	var node models.Node
	err := s.client.Get(ctx, fmt.Sprintf("/nodes/%d", nodeID), nil, &node)
	return node, err
}

// CreateFolder creates a folder under the given parent.
func (s *Service) CreateFolder(ctx context.Context, req models.CreateFolderRequest) (models.Node, error) {
	var node models.Node
	err := s.client.Post(ctx, "/nodes/folders", req, &node)
	return node, err
}

// CreateRoom creates a room; ParentID 0 creates it at the top level.
func (s *Service) CreateRoom(ctx context.Context, req models.CreateRoomRequest) (models.Node, error) {
	var node models.Node
	err := s.client.Post(ctx, "/nodes/rooms", req, &node)
	return node, err
}

// Delete removes the given nodes in one call.
func (s *Service) Delete(ctx context.Context, nodeIDs ...uint64) error {
	return s.client.Delete(ctx, "/nodes", models.DeleteNodesRequest{NodeIDs: nodeIDs})
}

// Move relocates nodes under targetID, keeping their names.
func (s *Service) Move(ctx context.Context, targetID uint64, req models.TransferNodesRequest) error {
	return s.client.Post(ctx, fmt.Sprintf("/nodes/%d/move_to", targetID), req, nil)
}

// Copy duplicates nodes under targetID.
func (s *Service) Copy(ctx context.Context, targetID uint64, req models.TransferNodesRequest) error {
	return s.client.Post(ctx, fmt.Sprintf("/nodes/%d/copy_to", targetID), req, nil)
}

// RoomUsers lists the users of a room together with their public keys,
// needed to wrap file keys when uploading into an encrypted room.
func (s *Service) RoomUsers(ctx context.Context, roomID uint64) ([]models.RoomUser, error) {
	return pager.FetchAll(ctx, func(ctx context.Context, offset, limit int64) (pager.Page[models.RoomUser], error) {
		q := url.Values{}
		q.Set("offset", strconv.FormatInt(offset, 10))
		q.Set("limit", strconv.FormatInt(limit, 10))
		var list models.RoomUserList
		if err := s.client.Get(ctx, fmt.Sprintf("/nodes/rooms/%d/users", roomID), q, &list); err != nil {
			return pager.Page[models.RoomUser]{}, err
		}
		return pager.Page[models.RoomUser]{Range: list.Range, Items: list.Items}, nil
	})
}

// childrenFilter narrows a search to the direct children of a parent path.
func childrenFilter(parentPath string) string {
	return filter.Combine(filter.ParentPathEq(parentPath))
}
