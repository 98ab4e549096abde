package inventory

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

var testScope = scope.Scope{ID: "ocid1.compartment.oc1..scope", Name: "scope", State: scope.StateActive}

// paginate serves items split into pages of opts.Limit using numeric cursors.
func paginate[T any](items []T, opts collect.PageOptions) (*collect.Page[T], error) {
	start := 0
	if opts.Page != nil {
		n, err := strconv.Atoi(*opts.Page)
		if err != nil {
			return nil, err
		}
		start = n
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	var next *string
	if end < len(items) {
		n := strconv.Itoa(end)
		next = &n
	}
	return collect.NewPage(append([]T(nil), items[start:end]...), next), nil
}

func testSettings() Settings {
	return Settings{PageSize: 1, Log: zerolog.Nop()}
}

type pageCounter struct {
	mu    sync.Mutex
	pages map[string]int
	items map[string]int
}

func (c *pageCounter) ObservePage(kind string, items int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pages == nil {
		c.pages = map[string]int{}
		c.items = map[string]int{}
	}
	c.pages[kind]++
	c.items[kind] += items
}

type fakePatch struct {
	hosts      []ManagedHostSummary
	listErr    error
	details    map[string]ManagedHostDetail
	detailErr  map[string]error
	updates    map[string][]Update
	updatesErr map[string]error
	group      ManagedInstanceGroup
	groupErr   error

	linuxCalls   []string
	windowsCalls []string
}

func (f *fakePatch) ListManagedInstances(_ context.Context, _ string, opts collect.PageOptions) (*collect.Page[ManagedHostSummary], error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return paginate(f.hosts, opts)
}

func (f *fakePatch) GetManagedInstance(_ context.Context, id string) (ManagedHostDetail, error) {
	if err := f.detailErr[id]; err != nil {
		return ManagedHostDetail{}, err
	}
	return f.details[id], nil
}

func (f *fakePatch) ListAvailableUpdates(_ context.Context, id string, opts collect.PageOptions) (*collect.Page[Update], error) {
	f.linuxCalls = append(f.linuxCalls, id)
	if err := f.updatesErr[id]; err != nil {
		return nil, err
	}
	return paginate(f.updates[id], opts)
}

func (f *fakePatch) ListAvailableWindowsUpdates(_ context.Context, id string, opts collect.PageOptions) (*collect.Page[Update], error) {
	f.windowsCalls = append(f.windowsCalls, id)
	if err := f.updatesErr[id]; err != nil {
		return nil, err
	}
	return paginate(f.updates[id], opts)
}

func (f *fakePatch) GetManagedInstanceGroup(context.Context, string) (ManagedInstanceGroup, error) {
	return f.group, f.groupErr
}
