package main

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/scope"
)

// FilterConfig represents the filtering configuration
type FilterConfig struct {
	IncludeCompartments []string `yaml:"include_compartments"`
	ExcludeCompartments []string `yaml:"exclude_compartments"`
	IncludeKinds        []string `yaml:"include_kinds"`
	ExcludeKinds        []string `yaml:"exclude_kinds"`
	NamePattern         string   `yaml:"name_pattern"`
	ExcludeNamePattern  string   `yaml:"exclude_name_pattern"`
}

// CompiledFilters holds the compiled name patterns
type CompiledFilters struct {
	NameRegex        *regexp.Regexp
	ExcludeNameRegex *regexp.Regexp
}

// kindAliases maps CLI-friendly names to kinds, on top of the kind names themselves
var kindAliases = map[string]inventory.Kind{
	"patches":                 inventory.KindPatch,
	"os_management":           inventory.KindPatch,
	"managed_instances":       inventory.KindPatch,
	"managed_instance_groups": inventory.KindInstanceGroup,
	"instance_groups":         inventory.KindInstanceGroup,
	"buckets":                 inventory.KindObjectStorage,
	"object_storage_buckets":  inventory.KindObjectStorage,
	"file_systems":            inventory.KindFileStorage,
	"file_storage_systems":    inventory.KindFileStorage,
	"cloudguard":              inventory.KindCloudGuard,
	"problems":                inventory.KindCloudGuard,
	"databases":               inventory.KindDatabase,
	"database_systems":        inventory.KindDatabase,
	"db_systems":              inventory.KindDatabase,
	"load_balancers":          inventory.KindLoadBalancer,
	"vpns":                    inventory.KindVPN,
	"ipsec":                   inventory.KindVPN,
	"compute_instances":       inventory.KindCompute,
	"instances":               inventory.KindCompute,
	"announcements":           inventory.KindAnnouncement,
	"oracle_announcements":    inventory.KindAnnouncement,
}

// normalizeKind converts a kind name or alias into a kind
func normalizeKind(name string) (inventory.Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	k, err := inventory.ParseKind(name)
	if err != nil {
		return "", fmt.Errorf("unknown kind '%s', supported kinds: %v", name, getSupportedKindNames())
	}
	return k, nil
}

// getSupportedKindNames returns the kind names and aliases in sorted order
func getSupportedKindNames() []string {
	var names []string
	for _, k := range inventory.AllKinds {
		names = append(names, string(k))
	}
	for alias := range kindAliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// ValidateFilterConfig validates the filter configuration
func ValidateFilterConfig(filter FilterConfig) error {
	for _, ocid := range append(append([]string{}, filter.IncludeCompartments...), filter.ExcludeCompartments...) {
		if !isValidCompartmentOCID(ocid) {
			return fmt.Errorf("invalid compartment OCID format: %s", ocid)
		}
	}

	for _, k := range append(append([]string{}, filter.IncludeKinds...), filter.ExcludeKinds...) {
		if _, err := normalizeKind(k); err != nil {
			return err
		}
	}

	if _, err := CompileFilters(filter); err != nil {
		return err
	}
	return nil
}

// CompileFilters compiles regex patterns for efficient matching
func CompileFilters(filter FilterConfig) (*CompiledFilters, error) {
	compiled := &CompiledFilters{}

	if filter.NamePattern != "" {
		regex, err := regexp.Compile(filter.NamePattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile name pattern '%s': %v", filter.NamePattern, err)
		}
		compiled.NameRegex = regex
	}

	if filter.ExcludeNamePattern != "" {
		regex, err := regexp.Compile(filter.ExcludeNamePattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile exclude name pattern '%s': %v", filter.ExcludeNamePattern, err)
		}
		compiled.ExcludeNameRegex = regex
	}

	return compiled, nil
}

// SelectKinds returns the kinds to collect in report order. requested narrows the
// set when not empty; the include and exclude filters apply afterwards.
func SelectKinds(requested []string, filter FilterConfig) ([]inventory.Kind, error) {
	want := map[inventory.Kind]bool{}
	for _, group := range [][]string{requested, filter.IncludeKinds} {
		if len(group) == 0 {
			continue
		}
		narrowed := map[inventory.Kind]bool{}
		for _, name := range group {
			k, err := normalizeKind(name)
			if err != nil {
				return nil, err
			}
			narrowed[k] = true
		}
		if len(want) == 0 {
			want = narrowed
			continue
		}
		for k := range want {
			if !narrowed[k] {
				delete(want, k)
			}
		}
	}

	excluded := map[inventory.Kind]bool{}
	for _, name := range filter.ExcludeKinds {
		k, err := normalizeKind(name)
		if err != nil {
			return nil, err
		}
		excluded[k] = true
	}

	explicit := len(requested) > 0 || len(filter.IncludeKinds) > 0
	var kinds []inventory.Kind
	for _, k := range inventory.AllKinds {
		if explicit && !want[k] {
			continue
		}
		if excluded[k] {
			continue
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no kinds left to collect after filtering")
	}
	return kinds, nil
}

// ScopeFilter keeps compartments on the include list (when set) and off the exclude list.
// The root is never filtered out.
func ScopeFilter(filter FilterConfig, root string) func(scope.Scope) bool {
	if len(filter.IncludeCompartments) == 0 && len(filter.ExcludeCompartments) == 0 {
		return nil
	}
	return func(s scope.Scope) bool {
		if s.ID == root {
			return true
		}
		if len(filter.IncludeCompartments) > 0 && !stringInSlice(s.ID, filter.IncludeCompartments) {
			return false
		}
		return !stringInSlice(s.ID, filter.ExcludeCompartments)
	}
}

// RecordFilter applies the name patterns to record display names.
func RecordFilter(compiled *CompiledFilters) func(inventory.Record) bool {
	if compiled == nil || (compiled.NameRegex == nil && compiled.ExcludeNameRegex == nil) {
		return nil
	}
	return func(r inventory.Record) bool {
		return ApplyNameFilter(r.Name(), compiled)
	}
}

// ApplyNameFilter checks if a resource name matches the filter criteria
func ApplyNameFilter(resourceName string, compiled *CompiledFilters) bool {
	if compiled.NameRegex != nil && !compiled.NameRegex.MatchString(resourceName) {
		return false
	}
	if compiled.ExcludeNameRegex != nil && compiled.ExcludeNameRegex.MatchString(resourceName) {
		return false
	}
	return true
}

// isValidCompartmentOCID validates the OCID format for compartments and tenancies
func isValidCompartmentOCID(ocid string) bool {
	return strings.HasPrefix(ocid, "ocid1.compartment.") || strings.HasPrefix(ocid, "ocid1.tenancy.")
}

// stringInSlice checks if a string exists in a slice
func stringInSlice(str string, slice []string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}

// ParseList splits a comma-separated flag value, dropping empty items
func ParseList(input string) []string {
	if input == "" {
		return nil
	}

	var result []string
	for _, item := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
