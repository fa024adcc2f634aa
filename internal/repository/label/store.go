// Package label indexes label names so searches can filter by label id.
package label

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/kailas-cloud/searchkit/internal/db"
	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/search/level"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
)

// store is the consumer interface for the label index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HMGet(ctx context.Context, key string, fields ...string) ([]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
}

// Label is a label id defined under a name in exactly one project or group.
type Label struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ProjectID int64  `json:"project_id,omitempty"`
	GroupID   int64  `json:"group_id,omitempty"`
}

// Validate checks that the label can be indexed.
func (l Label) Validate() error {
	switch {
	case l.Name == "":
		return domain.MissingOption("name")
	case l.ID <= 0:
		return domain.InvalidOption("id", "must be positive")
	case (l.ProjectID > 0) == (l.GroupID > 0):
		return domain.InvalidOption("project_id", "exactly one of project_id and group_id must be set")
	}
	return nil
}

func (l Label) field() string {
	if l.ProjectID > 0 {
		return projectField(l.ProjectID)
	}
	return groupField(l.GroupID)
}

// Store keeps one hash per label name: <prefix>labels:<name> with fields
// project:<id> and group:<id> holding the label id.
type Store struct {
	store store
}

// Compile-time check: Store resolves label names for the label filters.
var _ filters.LabelResolver = (*Store)(nil)

// New creates a label store.
func New(s store) *Store {
	return &Store{store: s}
}

// Put indexes labels in one round-trip.
func (s *Store) Put(ctx context.Context, labels ...Label) error {
	if len(labels) == 0 {
		return nil
	}

	byKey := make(map[string]map[string]string)
	var keys []string
	for _, l := range labels {
		if err := l.Validate(); err != nil {
			return err
		}
		k := key(l.Name)
		if _, ok := byKey[k]; !ok {
			byKey[k] = make(map[string]string)
			keys = append(keys, k)
		}
		byKey[k][l.field()] = strconv.FormatInt(l.ID, 10)
	}

	items := make([]db.HashSetItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, db.HashSetItem{Key: k, Fields: byKey[k]})
	}
	if err := s.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("put labels: %w", err)
	}
	return nil
}

// Delete removes a label from the index.
func (s *Store) Delete(ctx context.Context, l Label) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if err := s.store.HDel(ctx, key(l.Name), l.field()); err != nil {
		return fmt.Errorf("delete label %q: %w", l.Name, err)
	}
	return nil
}

// LabelIDs returns the sorted, distinct ids a name has within the scope.
// Global scope sees every project and group.
func (s *Store) LabelIDs(ctx context.Context, name string, scope filters.LabelScope) ([]int64, error) {
	var values []string
	if scope.Level == level.Global {
		all, err := s.store.HGetAll(ctx, key(name))
		if err != nil {
			return nil, fmt.Errorf("resolve label %q: %w", name, err)
		}
		for _, v := range all {
			values = append(values, v)
		}
	} else {
		fields := scopeFields(scope)
		if len(fields) == 0 {
			return nil, nil
		}
		got, err := s.store.HMGet(ctx, key(name), fields...)
		if err != nil {
			return nil, fmt.Errorf("resolve label %q: %w", name, err)
		}
		values = got
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("resolve label %q: bad id %q: %w", name, v, err)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func scopeFields(scope filters.LabelScope) []string {
	fields := make([]string, 0, len(scope.ProjectIDs)+len(scope.GroupIDs))
	for _, id := range scope.ProjectIDs {
		fields = append(fields, projectField(id))
	}
	for _, id := range scope.GroupIDs {
		fields = append(fields, groupField(id))
	}
	return fields
}

func key(name string) string {
	return domain.KeyPrefix + "labels:" + name
}

func projectField(id int64) string { return "project:" + strconv.FormatInt(id, 10) }
func groupField(id int64) string   { return "group:" + strconv.FormatInt(id, 10) }
