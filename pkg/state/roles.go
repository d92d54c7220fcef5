package state

// RoleAdmin is the backend role name that grants access to admin events.
const RoleAdmin = "admin"

// RoleSet is the set of role names the backend resolved for a user.
type RoleSet map[string]struct{}

func NewRoleSet(names ...string) RoleSet {
	set := make(RoleSet, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

func (r RoleSet) Has(name string) bool {
	_, ok := r[name]
	return ok
}

func (r RoleSet) IsAdmin() bool {
	return r.Has(RoleAdmin)
}

// Names returns the role names for logging.
func (r RoleSet) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}
