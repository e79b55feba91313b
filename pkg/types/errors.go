package types

import "fmt"

// MissingRouteError reports that no route is configured for an identity
// tuple. There is deliberately no default backend: callers surface this error
// so an operator can create the route via the routing API.
type MissingRouteError struct {
	Key RouteKey
}

func (e *MissingRouteError) Error() string {
	return fmt.Sprintf("no backend route configured for %q (tenant %q, env %q): create one via POST /api/routes",
		e.Key.Kind, e.Key.Tenant, e.Key.Env)
}

// ForbiddenBackendClassError reports that a route exists but its backend
// class is not permitted in the caller's deployment mode. The fix is to
// switch the route to a durable backend, not to create one.
type ForbiddenBackendClassError struct {
	Key         RouteKey
	BackendType string
	Mode        DeploymentMode
}

func (e *ForbiddenBackendClassError) Error() string {
	return fmt.Sprintf("backend %q for %s is %s-class and not permitted in deployment mode %q",
		e.BackendType, e.Key, ClassOf(e.BackendType), e.Mode)
}

// RegistryUnavailableError reports that the registry's own persistence layer
// failed. Distinct from MissingRouteError: the fix is operational, not
// configuration.
type RegistryUnavailableError struct {
	Op  string
	Err error
}

func (e *RegistryUnavailableError) Error() string {
	return fmt.Sprintf("route registry unavailable during %s: %v", e.Op, e.Err)
}

func (e *RegistryUnavailableError) Unwrap() error { return e.Err }

// InvalidSwitchRequestError reports a rejected backend switch: empty
// rationale, failed approval validation, or a route that does not exist.
type InvalidSwitchRequestError struct {
	Key    RouteKey
	Reason string
}

func (e *InvalidSwitchRequestError) Error() string {
	return fmt.Sprintf("cannot switch backend for %s: %s", e.Key, e.Reason)
}

// SwitchDeniedError reports a backend switch blocked by the approval
// mechanism. An unreachable approver denies; it never passes.
type SwitchDeniedError struct {
	Key    RouteKey
	Reason string
}

func (e *SwitchDeniedError) Error() string {
	return fmt.Sprintf("backend switch for %s denied: %s", e.Key, e.Reason)
}

// ValidationError reports a malformed identity tuple on upsert.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid route: %s", e.Reason)
}
