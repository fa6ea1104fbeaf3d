package contract

import "fmt"

// Group collects endpoints under a named namespace. Add returns a new
// group; the receiver is never mutated, so partially built groups can be
// shared freely. Declaration errors stick to the returned copy and surface
// from Err and from every build entry point.
type Group struct {
	name      string
	endpoints []*Endpoint
	err       error
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	g := &Group{name: name}
	if name == "" {
		g.err = fmt.Errorf("group: name must not be empty")
	}
	return g
}

// Add returns a new group with the endpoint appended. A duplicate endpoint
// id or a broken endpoint declaration is recorded as a construction error.
func (g *Group) Add(ep *Endpoint) *Group {
	cp := &Group{
		name:      g.name,
		endpoints: append(append([]*Endpoint(nil), g.endpoints...), ep),
		err:       g.err,
	}
	if cp.err != nil {
		return cp
	}
	if err := ep.validate(); err != nil {
		cp.err = fmt.Errorf("group %q: %w", g.name, err)
		return cp
	}
	for _, existing := range g.endpoints {
		if existing.id == ep.id {
			cp.err = &DuplicateIDError{Group: g.name, ID: ep.id}
			return cp
		}
	}
	return cp
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Endpoints returns the declared endpoints in declaration order.
func (g *Group) Endpoints() []*Endpoint {
	return append([]*Endpoint(nil), g.endpoints...)
}

// Err returns the first construction error, if any.
func (g *Group) Err() error { return g.err }

// API collects groups into a single top-level description. It is the single
// source of truth for server dispatch, client derivation, and generated
// documentation.
type API struct {
	name   string
	groups []*Group
	err    error
}

// NewAPI creates an empty API description.
func NewAPI(name string) *API {
	return &API{name: name}
}

// AddGroup returns a new API with the group appended. Duplicate group names
// and group construction errors are recorded as construction errors.
func (a *API) AddGroup(g *Group) *API {
	cp := &API{
		name:   a.name,
		groups: append(append([]*Group(nil), a.groups...), g),
		err:    a.err,
	}
	if cp.err != nil {
		return cp
	}
	if g.err != nil {
		cp.err = g.err
		return cp
	}
	for _, existing := range a.groups {
		if existing.name == g.name {
			cp.err = fmt.Errorf("api %q: duplicate group %q", a.name, g.name)
			return cp
		}
	}
	return cp
}

// Name returns the API name.
func (a *API) Name() string { return a.name }

// Groups returns the declared groups in declaration order.
func (a *API) Groups() []*Group {
	return append([]*Group(nil), a.groups...)
}

// Err returns the first construction error, if any.
func (a *API) Err() error { return a.err }

// endpoint looks up an endpoint by group name and endpoint id.
func (a *API) endpoint(group, id string) (*Endpoint, bool) {
	for _, g := range a.groups {
		if g.name != group {
			continue
		}
		for _, ep := range g.endpoints {
			if ep.id == id {
				return ep, true
			}
		}
	}
	return nil, false
}
