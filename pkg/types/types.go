// Package types defines the public domain types for the Switchyard resource
// routing control plane.
package types

import (
	"strings"
	"time"
)

// DeploymentMode is the trust tier a request runs under. It determines which
// backend classes the guard permits.
type DeploymentMode string

// DeploymentMode values enumerate the supported trust tiers.
const (
	// ModeLab is the lowest-trust local-development mode and the only mode
	// in which local backend classes are permitted.
	ModeLab       DeploymentMode = "lab"
	ModeSaaS      DeploymentMode = "saas"
	ModeDedicated DeploymentMode = "dedicated"
)

// BackendClass is the safety grouping of a backend family.
type BackendClass string

// BackendClass values used by the resolver guard.
const (
	BackendClassLocal   BackendClass = "local"
	BackendClassDurable BackendClass = "durable"
)

// Backend type strings for the local (disk-backed / in-process) class. Every
// other backend type string is opaque to the core and treated as durable.
const (
	BackendFilesystem = "filesystem"
	BackendMemory     = "memory"
)

// ClassOf returns the safety class of a backend type string.
func ClassOf(backendType string) BackendClass {
	switch backendType {
	case BackendFilesystem, BackendMemory:
		return BackendClassLocal
	default:
		return BackendClassDurable
	}
}

// Well-known resource kinds. The registry accepts any non-empty kind string;
// these constants cover the platform's own consumers.
const (
	KindEventStream        = "event-stream"
	KindObjectStore        = "object-store"
	KindTabularStore       = "tabular-store"
	KindMetricsStore       = "metrics-store"
	KindMemoryStore        = "memory-store"
	KindCanvasCommandStore = "canvas-command-store"
	KindAnalyticsStore     = "analytics-store"
	KindRoutingRegistry    = "routing-registry"
)

// ProjectAny is the wildcard project marker. A route stored with ProjectAny
// applies to lookups that do not name a project; it never matches lookups
// that do.
const ProjectAny = "*"

// RouteKey is the immutable identity tuple of a route. Surface is stored
// normalized; see the normalize package.
type RouteKey struct {
	Kind    string `yaml:"kind" json:"kind"`
	Tenant  string `yaml:"tenant" json:"tenant"`
	Env     string `yaml:"env" json:"env"`
	Project string `yaml:"project,omitempty" json:"project,omitempty"`
	Surface string `yaml:"surface,omitempty" json:"surface,omitempty"`
}

// WithDefaults returns a copy with the wildcard project marker applied when
// no project is set.
func (k RouteKey) WithDefaults() RouteKey {
	if k.Project == "" {
		k.Project = ProjectAny
	}
	return k
}

// String renders the tuple as "kind/tenant/env/project/surface" for log
// lines and lock keys.
func (k RouteKey) String() string {
	k = k.WithDefaults()
	s := k.Kind + "/" + k.Tenant + "/" + k.Env + "/" + k.Project
	if k.Surface != "" {
		s += "/" + k.Surface
	}
	return s
}

// Identity component values reserved by the stores' key encodings: the file
// layout writes the wildcard project as "_any" and an empty surface as
// "default", so literal routes under those names would alias them.
const (
	reservedProjectName = "_any"
	reservedSurfaceName = "default"
)

// Validate rejects malformed identity tuples. Components become path
// segments and partition keys verbatim, so separator characters,
// relative-path names, and the stores' reserved markers are refused rather
// than escaped.
func (k RouteKey) Validate() error {
	switch {
	case k.Kind == "":
		return &ValidationError{Field: "kind", Reason: "resource kind is required"}
	case k.Tenant == "":
		return &ValidationError{Field: "tenant", Reason: "tenant id is required"}
	case k.Env == "":
		return &ValidationError{Field: "env", Reason: "environment is required"}
	}
	for _, c := range []struct{ field, value string }{
		{"kind", k.Kind},
		{"tenant", k.Tenant},
		{"env", k.Env},
		{"project", k.Project},
		{"surface", k.Surface},
	} {
		if err := validateComponent(c.field, c.value); err != nil {
			return err
		}
	}
	if k.Project == reservedProjectName {
		return &ValidationError{Field: "project", Reason: `project name "_any" is reserved`}
	}
	if k.Surface == reservedSurfaceName {
		return &ValidationError{Field: "surface", Reason: `surface name "default" is reserved`}
	}
	return nil
}

func validateComponent(field, value string) error {
	switch {
	case value == "":
		return nil
	case strings.Contains(value, "/"):
		return &ValidationError{Field: field, Reason: field + ` must not contain "/"`}
	case value == "." || value == "..":
		return &ValidationError{Field: field, Reason: field + " must not be a relative path name"}
	}
	return nil
}

// ResourceRoute maps an identity tuple to a concrete backend configuration.
type ResourceRoute struct {
	RouteKey `yaml:",inline" json:",inline"`

	// Mutable configuration.
	BackendType string            `yaml:"backendType" json:"backendType"`
	Config      map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
	Required    bool              `yaml:"required,omitempty" json:"required,omitempty"`

	// Diagnostic metadata. Never consulted by resolution logic.
	Tier         string `yaml:"tier,omitempty" json:"tier,omitempty"`
	CostNotes    string `yaml:"costNotes,omitempty" json:"costNotes,omitempty"`
	HealthStatus string `yaml:"healthStatus,omitempty" json:"healthStatus,omitempty"`

	// Switch history. Stamped by the registry when BackendType changes;
	// never writable by callers.
	PreviousBackendType string     `yaml:"previousBackendType,omitempty" json:"previousBackendType,omitempty"`
	SwitchRationale     string     `yaml:"switchRationale,omitempty" json:"switchRationale,omitempty"`
	LastSwitchTime      *time.Time `yaml:"lastSwitchTime,omitempty" json:"lastSwitchTime,omitempty"`

	CreatedAt time.Time `yaml:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `yaml:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Descriptor returns the opaque backend descriptor handed to adapter
// factories.
func (r ResourceRoute) Descriptor() BackendDescriptor {
	return BackendDescriptor{BackendType: r.BackendType, Config: r.Config}
}

// BackendDescriptor is the resolver's output: a backend family name plus its
// opaque configuration. The core never constructs adapters from it.
type BackendDescriptor struct {
	BackendType string            `json:"backendType"`
	Config      map[string]string `json:"config,omitempty"`
}

// ChangeAction classifies a route mutation.
type ChangeAction string

// ChangeAction values enumerate the audited route mutations.
const (
	RouteCreated  ChangeAction = "ROUTE_CREATED"
	RouteUpdated  ChangeAction = "ROUTE_UPDATED"
	RouteSwitched ChangeAction = "ROUTE_SWITCHED"
	RouteDeleted  ChangeAction = "ROUTE_DELETED"
)

// RouteChangeEvent records a route mutation. The same record feeds both the
// persisted audit trail and the live change stream.
type RouteChangeEvent struct {
	ID       string       `json:"id"`
	Action   ChangeAction `json:"action"`
	RouteKey `json:",inline"`

	OldBackendType string `json:"oldBackendType,omitempty"`
	NewBackendType string `json:"newBackendType,omitempty"`
	Rationale      string `json:"rationale,omitempty"`
	Actor          string `json:"actor,omitempty"`
	ApprovalID     string `json:"approvalId,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// DiagnosticsView is the operator-facing read model of a route: the stored
// record with secret-looking config values redacted and switch history
// verbatim.
type DiagnosticsView struct {
	RouteKey `json:",inline"`

	BackendType  string            `json:"backendType"`
	Config       map[string]string `json:"config,omitempty"`
	Required     bool              `json:"required,omitempty"`
	Tier         string            `json:"tier,omitempty"`
	CostNotes    string            `json:"costNotes,omitempty"`
	HealthStatus string            `json:"healthStatus,omitempty"`

	PreviousBackendType string     `json:"previousBackendType,omitempty"`
	SwitchRationale     string     `json:"switchRationale,omitempty"`
	LastSwitchTime      *time.Time `json:"lastSwitchTime,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
