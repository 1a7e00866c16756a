// Package account defines the Account aggregate: a set of stored credentials
// for one school-information backend, tagged with the service discriminant
// the dispatch layer routes on. The virtual multi-service account delegates
// each data feature to an independently configured concrete account.
package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/papillon-hub/papillon-core/internal/domain/shared"
)

// Service is the immutable discriminant selecting a backend adapter.
type Service string

const (
	ServicePronote      Service = "pronote"
	ServiceEcoleDirecte Service = "ecoledirecte"
	ServiceSkolengo     Service = "skolengo"
	ServiceUPHF         Service = "uphf"
	ServiceTurboself    Service = "turboself"

	// ServiceMulti is the virtual multi-service account. It owns no
	// session of its own; every feature resolves to a concrete backing
	// account through Bindings.
	ServiceMulti Service = "multi"
)

// KnownServices lists every service tag an account may carry.
var KnownServices = []Service{
	ServicePronote,
	ServiceEcoleDirecte,
	ServiceSkolengo,
	ServiceUPHF,
	ServiceTurboself,
	ServiceMulti,
}

// IsValid reports whether the tag is a known service.
func (s Service) IsValid() bool {
	for _, known := range KnownServices {
		if s == known {
			return true
		}
	}
	return false
}

// Feature is one data domain an account can serve.
type Feature string

const (
	FeatureGrades      Feature = "grades"
	FeatureAttendance  Feature = "attendance"
	FeatureTimetable   Feature = "timetable"
	FeatureHomework    Feature = "homework"
	FeatureEvaluations Feature = "evaluations"
	FeatureChats       Feature = "chats"
	FeatureBalance     Feature = "balance"
	FeatureBookings    Feature = "bookings"
)

// Credentials holds the stored login material for a backend. Secret is
// sealed at rest (see pkg/sealbox) and opened only when an adapter
// establishes a session.
type Credentials struct {
	Username    string `json:"username"`
	Secret      []byte `json:"secret"`
	InstanceURL string `json:"instance_url,omitempty"`
}

// Account is one configured backend account.
type Account struct {
	ID          uuid.UUID
	Service     Service
	DisplayName string
	SchoolName  string
	Credentials Credentials

	// Session is the live backend session handle, nil until an adapter
	// logs in. Its concrete type belongs to the owning adapter.
	// Operations that cannot soft-fail check it and return
	// shared.ErrUnauthenticated when absent.
	Session any

	// Bindings maps features to concrete backing account IDs. Only
	// meaningful for ServiceMulti; a missing entry means the feature is
	// unconfigured and resolves to the empty default.
	Bindings map[Feature]uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a concrete account with a fresh identity.
func New(service Service, displayName string, creds Credentials) (*Account, error) {
	if !service.IsValid() {
		return nil, shared.ErrUnknownService
	}
	now := time.Now().UTC()
	return &Account{
		ID:          uuid.New(),
		Service:     service,
		DisplayName: displayName,
		Credentials: creds,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewMulti creates a virtual multi-service account with the given per-feature
// bindings.
func NewMulti(displayName string, bindings map[Feature]uuid.UUID) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:          uuid.New(),
		Service:     ServiceMulti,
		DisplayName: displayName,
		Bindings:    bindings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsVirtual reports whether the account is the multi-service indirection.
func (a *Account) IsVirtual() bool {
	return a.Service == ServiceMulti
}

// Authenticated reports whether a live backend session is attached.
func (a *Account) Authenticated() bool {
	return a.Session != nil
}

// BindingFor returns the backing account ID configured for a feature.
func (a *Account) BindingFor(feature Feature) (uuid.UUID, bool) {
	if a.Bindings == nil {
		return uuid.Nil, false
	}
	id, ok := a.Bindings[feature]
	return id, ok
}
