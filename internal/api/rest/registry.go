package rest

import (
	"github.com/meapp/restapi/internal/api/apierr"
)

// Endpoint describes one registered API endpoint: where it lives, which
// permission each HTTP method requires and which credential it expects.
type Endpoint struct {
	Group       string
	Name        string
	Description string

	// Permissions maps an HTTP method to the "section.subject" permission
	// required for it. Methods absent from the map are not allowed.
	Permissions map[string]string

	// UserTokenNeeded selects the credential policy: true means the call must
	// carry exactly a user token, false exactly a client token.
	UserTokenNeeded bool

	Handler HandlerFunc
}

type group struct {
	description string
	endpoints   map[string]*Endpoint
}

// Registry maps (group, endpoint) pairs to their handlers. It is populated
// during startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	groups map[string]*group
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*group)}
}

// RegisterGroup records a group description. Groups are also created
// implicitly by Register, so this only fills in documentation.
func (r *Registry) RegisterGroup(name, description string) {
	g := r.ensureGroup(name)
	g.description = description
}

// Register adds an endpoint. Registering the same (group, name) pair twice is
// a programming error and fails so startup can abort.
func (r *Registry) Register(ep *Endpoint) error {
	g := r.ensureGroup(ep.Group)
	if _, exists := g.endpoints[ep.Name]; exists {
		return apierr.EndpointAmbiguousName(ep.Group, ep.Name)
	}
	g.endpoints[ep.Name] = ep
	return nil
}

// MustRegister is Register for static startup wiring; it panics on duplicates.
func (r *Registry) MustRegister(ep *Endpoint) {
	if err := r.Register(ep); err != nil {
		panic(err)
	}
}

// Lookup resolves a group/endpoint pair, distinguishing an unknown group from
// an unknown endpoint within a known group.
func (r *Registry) Lookup(groupName, endpointName string) (*Endpoint, error) {
	g, ok := r.groups[groupName]
	if !ok {
		return nil, apierr.GroupNotFound(groupName)
	}
	ep, ok := g.endpoints[endpointName]
	if !ok {
		return nil, apierr.EndpointNotFound(groupName, endpointName)
	}
	return ep, nil
}

// Permissions returns every permission string declared by registered
// endpoints, deduplicated. The catalog seeder uses this at startup.
func (r *Registry) Permissions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range r.groups {
		for _, ep := range g.endpoints {
			for _, perm := range ep.Permissions {
				if _, ok := seen[perm]; ok {
					continue
				}
				seen[perm] = struct{}{}
				out = append(out, perm)
			}
		}
	}
	return out
}

func (r *Registry) ensureGroup(name string) *group {
	g, ok := r.groups[name]
	if !ok {
		g = &group{endpoints: make(map[string]*Endpoint)}
		r.groups[name] = g
	}
	return g
}
