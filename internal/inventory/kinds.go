package inventory

import (
	"fmt"
	"strings"
)

// Kind names one resource kind the report collects.
type Kind string

const (
	KindPatch         Kind = "patch"
	KindInstanceGroup Kind = "instance_group"
	KindObjectStorage Kind = "object_storage"
	KindFileStorage   Kind = "file_storage"
	KindCloudGuard    Kind = "cloud_guard"
	KindDatabase      Kind = "database"
	KindLoadBalancer  Kind = "load_balancer"
	KindVPN           Kind = "vpn"
	KindCompute       Kind = "compute"
	KindAnnouncement  Kind = "announcement"
)

// AllKinds lists every kind in report order.
var AllKinds = []Kind{
	KindPatch,
	KindInstanceGroup,
	KindObjectStorage,
	KindFileStorage,
	KindCloudGuard,
	KindDatabase,
	KindLoadBalancer,
	KindVPN,
	KindCompute,
	KindAnnouncement,
}

// Order returns the position of k in report order; unknown kinds sort last.
func (k Kind) Order() int {
	for i, known := range AllKinds {
		if known == k {
			return i
		}
	}
	return len(AllKinds)
}

// Valid reports whether k is one of AllKinds.
func (k Kind) Valid() bool {
	return k.Order() < len(AllKinds)
}

// ParseKind accepts the canonical kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown resource kind: %s", s)
	}
	return k, nil
}
