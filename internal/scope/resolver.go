// Package scope resolves the set of compartments a report run covers.
package scope

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"oci-compliance-report/internal/collect"
)

const (
	// ManagedPaaSCompartment is created by OCI for platform services and never scanned.
	ManagedPaaSCompartment = "ManagedCompartmentForPaaS"

	// DefaultMaxDepth is far deeper than the six levels OCI allows below the tenancy.
	DefaultMaxDepth = 16

	tenancyPrefix = "ocid1.tenancy."
)

// LifecycleState of a compartment as reported by the identity service.
type LifecycleState string

const (
	StateActive   LifecycleState = "ACTIVE"
	StateInactive LifecycleState = "INACTIVE"
	StateDeleted  LifecycleState = "DELETED"
)

// Scope is one compartment (or the tenancy root).
type Scope struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	ParentID string         `json:"parent_id,omitempty"`
	State    LifecycleState `json:"lifecycle_state,omitempty"`
}

// IsTenancy reports whether the OCID names a tenancy root.
func IsTenancy(id string) bool {
	return strings.HasPrefix(id, tenancyPrefix)
}

// Traversable reports whether the scope is active and not reserved by OCI.
func (s Scope) Traversable() bool {
	return s.State == StateActive && s.Name != ManagedPaaSCompartment
}

// Directory is the identity capability the resolver needs.
type Directory interface {
	// ListCompartments lists the children of parentID, or its whole subtree when subtree is set.
	ListCompartments(ctx context.Context, parentID string, subtree bool, opts collect.PageOptions) (*collect.Page[Scope], error)
	GetCompartment(ctx context.Context, id string) (Scope, error)
}

// ResolutionError is fatal to a run: no resource collection happens without the scope set.
type ResolutionError struct {
	Scope string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve compartments under %s: %v", e.Scope, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Options controls a resolution.
type Options struct {
	Recursive bool
	MaxDepth  int
	PageSize  int
	// RootName labels the root scope; when empty the name is looked up.
	RootName string
	Log      zerolog.Logger
}

// Resolve returns the root followed by every reachable, traversable compartment below it
// in depth-first order. Each scope appears once.
func Resolve(ctx context.Context, dir Directory, root string, opts Options) ([]Scope, error) {
	if root == "" {
		return nil, &ResolutionError{Scope: root, Err: fmt.Errorf("no root compartment given")}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	rootScope, err := describeRoot(ctx, dir, root, opts)
	if err != nil {
		return nil, err
	}

	scopes := []Scope{rootScope}
	if !opts.Recursive {
		return scopes, nil
	}

	seen := map[string]bool{root: true}
	add := func(children []Scope) []Scope {
		var added []Scope
		for _, c := range children {
			if !c.Traversable() || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			scopes = append(scopes, c)
			added = append(added, c)
		}
		return added
	}

	if IsTenancy(root) {
		opts.Log.Info().Str("scope", root).Msg("listing compartment subtree of tenancy")
		children, err := list(ctx, dir, root, true, opts)
		if err != nil {
			return nil, err
		}
		add(children)
		return scopes, nil
	}

	var walk func(parent string, depth int) error
	walk = func(parent string, depth int) error {
		if depth > opts.MaxDepth {
			return &ResolutionError{Scope: parent, Err: fmt.Errorf("compartment tree deeper than %d levels", opts.MaxDepth)}
		}
		children, err := list(ctx, dir, parent, false, opts)
		if err != nil {
			return err
		}
		added := add(children)
		opts.Log.Debug().Str("scope", parent).Int("children", len(added)).Msg("listed sub compartments")
		for _, child := range added {
			if err := walk(child.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, 1); err != nil {
		return nil, err
	}
	return scopes, nil
}

// describeRoot builds the root scope; tenancies are always named "root".
func describeRoot(ctx context.Context, dir Directory, root string, opts Options) (Scope, error) {
	s := Scope{ID: root, Name: opts.RootName, State: StateActive}
	if IsTenancy(root) {
		if s.Name == "" {
			s.Name = "root"
		}
		return s, nil
	}
	if s.Name != "" {
		return s, nil
	}

	got, err := dir.GetCompartment(ctx, root)
	if err != nil {
		return Scope{}, &ResolutionError{Scope: root, Err: err}
	}
	got.ID = root
	if got.State == "" {
		got.State = StateActive
	}
	return got, nil
}

func list(ctx context.Context, dir Directory, parent string, subtree bool, opts Options) ([]Scope, error) {
	fn := func(ctx context.Context, p collect.PageOptions) (*collect.Page[Scope], error) {
		return dir.ListCompartments(ctx, parent, subtree, p)
	}
	children, err := collect.All(ctx, fn, collect.DefaultOptions(opts.PageSize))
	if err != nil {
		return nil, &ResolutionError{Scope: parent, Err: err}
	}
	return children, nil
}
