// Package admin wraps the management endpoints: user and group directories
// and the audit event log. Every listing pages through the full collection.
package admin

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/pager"
)

// Service issues admin API calls. The session behind the client needs the
// corresponding management role; insufficient rights surface as 403s.
type Service struct {
	client *api.Client
}

// NewService wraps an authenticated API client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// ListOptions narrows an admin listing.
type ListOptions struct {
	Filter string
	Sort   string
}

func (o ListOptions) apply(q url.Values) {
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
}

// Users returns every account visible to the session.
func (s *Service) Users(ctx context.Context, opts ListOptions) ([]models.User, error) {
	return pager.FetchAll(ctx, func(ctx context.Context, offset, limit int64) (pager.Page[models.User], error) {
		q := rangeQuery(offset, limit)
		opts.apply(q)
		var list models.UserList
		if err := s.client.Get(ctx, "/users", q, &list); err != nil {
			return pager.Page[models.User]{}, err
		}
		return pager.Page[models.User]{Range: list.Range, Items: list.Items}, nil
	})
}

// Groups returns every user group.
func (s *Service) Groups(ctx context.Context, opts ListOptions) ([]models.Group, error) {
	return pager.FetchAll(ctx, func(ctx context.Context, offset, limit int64) (pager.Page[models.Group], error) {
		q := rangeQuery(offset, limit)
		opts.apply(q)
		var list models.GroupList
		if err := s.client.Get(ctx, "/groups", q, &list); err != nil {
			return pager.Page[models.Group]{}, err
		}
		return pager.Page[models.Group]{Range: list.Range, Items: list.Items}, nil
	})
}

// AuditOptions bounds an event log query.
type AuditOptions struct {
	From      *time.Time
	To        *time.Time
	UserID    uint64
	Operation string
}

// AuditLog returns the audit records matching opts, newest first.
func (s *Service) AuditLog(ctx context.Context, opts AuditOptions) ([]models.EventLogEntry, error) {
	return pager.FetchAll(ctx, func(ctx context.Context, offset, limit int64) (pager.Page[models.EventLogEntry], error) {
		q := rangeQuery(offset, limit)
		q.Set("sort", "time:desc")
		if opts.From != nil {
			q.Set("date_start", opts.From.UTC().Format(time.RFC3339))
		}
		if opts.To != nil {
			q.Set("date_end", opts.To.UTC().Format(time.RFC3339))
		}
		if opts.UserID != 0 {
			q.Set("user_id", strconv.FormatUint(opts.UserID, 10))
		}
		if opts.Operation != "" {
			q.Set("operation_type", opts.Operation)
		}

		var list models.EventLogList
		if err := s.client.Get(ctx, "/eventlog/events", q, &list); err != nil {
			return pager.Page[models.EventLogEntry]{}, err
		}
		return pager.Page[models.EventLogEntry]{Range: list.Range, Items: list.Items}, nil
	})
}

func rangeQuery(offset, limit int64) url.Values {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("limit", strconv.FormatInt(limit, 10))
	return q
}
