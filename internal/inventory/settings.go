package inventory

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultRiskLevel selects the Cloud Guard problems that are reported.
	DefaultRiskLevel = "CRITICAL"
	// BackupPrefix is followed by the run date in the default object prefix.
	BackupPrefix = "RMANBKP_"
)

// PageObserver is told about every page a listing delivered.
type PageObserver interface {
	ObservePage(kind string, items int)
}

// Settings is the per-run configuration handed to every aggregator call.
type Settings struct {
	// Namespace is the Object Storage namespace of the tenancy.
	Namespace string
	// ObjectPrefix filters bucket objects; empty means BackupPrefix plus today's date.
	ObjectPrefix        string
	AvailabilityDomains []string
	RiskLevel           string
	VerboseTunnels      bool
	PageSize            int
	Now                 func() time.Time
	Log                 zerolog.Logger
	Observer            PageObserver
}

// WithDefaults fills the unset fields.
func (s Settings) WithDefaults() Settings {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.RiskLevel == "" {
		s.RiskLevel = DefaultRiskLevel
	}
	if s.ObjectPrefix == "" {
		s.ObjectPrefix = BackupPrefix + s.Now().Format("2006_01_02")
	}
	return s
}
