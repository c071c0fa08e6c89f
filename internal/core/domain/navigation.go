package domain

// NavItem is one entry of the role-specific portal navigation.
type NavItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// DashboardView names the dashboard a role is shown.
func (r Role) DashboardView() string {
	if !r.Valid() {
		return ""
	}
	return string(r) + "_dashboard"
}

// PortalTitle is the heading shown above the navigation, e.g. "Doctor Portal".
func (r Role) PortalTitle() string {
	switch r {
	case RolePatient:
		return "Patient Portal"
	case RoleDoctor:
		return "Doctor Portal"
	case RoleAdmin:
		return "Admin Portal"
	}
	return ""
}

// Navigation returns the menu entries for r. Every role starts with the
// dashboard; unknown roles get nothing else.
func (r Role) Navigation() []NavItem {
	items := []NavItem{{Name: "Dashboard", Path: "/"}}
	switch r {
	case RolePatient:
		items = append(items,
			NavItem{Name: "My Reports", Path: "/reports"},
			NavItem{Name: "Appointments", Path: "/appointments"},
			NavItem{Name: "Profile", Path: "/profile"},
		)
	case RoleDoctor:
		items = append(items,
			NavItem{Name: "Patient Reports", Path: "/reports"},
			NavItem{Name: "Appointments", Path: "/appointments"},
			NavItem{Name: "Profile", Path: "/profile"},
		)
	case RoleAdmin:
		items = append(items,
			NavItem{Name: "Users", Path: "/users"},
			NavItem{Name: "Doctors", Path: "/doctors"},
			NavItem{Name: "Reports", Path: "/reports"},
			NavItem{Name: "Settings", Path: "/settings"},
		)
	}
	return items
}
