package rbac

// NavItem is a sidebar entry. Items with children are groups; Feature, when
// set, requires read permission on that feature.
type NavItem struct {
	LabelKey string
	Href     string
	Feature  string
	Children []NavItem
}

// Sidebar is the console's navigation
var Sidebar = []NavItem{
	{LabelKey: "navigation.dashboard", Href: "/dashboard", Feature: FeatureDashboard},
	{
		LabelKey: "navigation.management",
		Children: []NavItem{
			{LabelKey: "navigation.users", Href: "/management/users", Feature: FeatureUserManagement},
			{LabelKey: "navigation.roles", Href: "/management/roles", Feature: FeatureRBACManagement},
		},
	},
}

// Visible filters items down to what perms allows. Nothing gated is shown
// until the permissions have loaded, and a group with no visible children is
// dropped.
func Visible(items []NavItem, perms Permissions) []NavItem {
	visible := make([]NavItem, 0, len(items))
	for _, item := range items {
		if item.Feature != "" && !perms.CanRead(item.Feature) {
			continue
		}
		if len(item.Children) > 0 {
			children := Visible(item.Children, perms)
			if len(children) == 0 {
				continue
			}
			item.Children = children
		}
		visible = append(visible, item)
	}
	return visible
}
