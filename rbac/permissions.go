// Package rbac evaluates the signed-in user's feature permissions.
package rbac

// Feature names as the backend reports them
const (
	FeatureDashboard      = "dashboard"
	FeatureUserManagement = "user_management"
	FeatureRBACManagement = "RBAC_management"
)

// Action is one of the permission flags on a feature
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionPrint  Action = "print"
)

// Flags are the per-feature permission bits
type Flags struct {
	CanCreate bool `json:"canCreate"`
	CanRead   bool `json:"canRead"`
	CanUpdate bool `json:"canUpdate"`
	CanDelete bool `json:"canDelete"`
	CanPrint  bool `json:"canPrint"`
}

func (f Flags) allows(action Action) bool {
	switch action {
	case ActionCreate:
		return f.CanCreate
	case ActionRead:
		return f.CanRead
	case ActionUpdate:
		return f.CanUpdate
	case ActionDelete:
		return f.CanDelete
	case ActionPrint:
		return f.CanPrint
	default:
		return false
	}
}

// PermissionFeature is the feature reference embedded in a role permission
type PermissionFeature struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RolePermission is one feature's permissions on a role
type RolePermission struct {
	FeatureID string `json:"featureId"`
	Flags
	Feature *PermissionFeature `json:"feature,omitempty"`
}

// PermissionInput is a role permission as submitted on create and update
type PermissionInput struct {
	FeatureID string `json:"featureId"`
	Flags
}

// MyPermission is one feature's permissions for the signed-in user
type MyPermission struct {
	FeatureID   string `json:"featureId"`
	FeatureName string `json:"featureName"`
	Flags
}

// MyPermissions is the signed-in user's role and permission set
type MyPermissions struct {
	RoleName    string         `json:"roleName"`
	Permissions []MyPermission `json:"permissions"`
}

// Permissions answers permission questions for the signed-in user.
// The zero value is not loaded and denies everything.
type Permissions struct {
	roleName string
	byName   map[string]Flags
	loaded   bool
}

// NewPermissions indexes a loaded permission set. A nil set is treated as
// loaded and empty.
func NewPermissions(mine *MyPermissions) Permissions {
	p := Permissions{byName: map[string]Flags{}, loaded: true}
	if mine == nil {
		return p
	}
	p.roleName = mine.RoleName
	for _, perm := range mine.Permissions {
		p.byName[perm.FeatureName] = perm.Flags
	}
	return p
}

// Loaded reports whether the permission set has arrived
func (p Permissions) Loaded() bool {
	return p.loaded
}

func (p Permissions) RoleName() string {
	return p.roleName
}

// HasPermission reports whether action is allowed on feature. Unknown
// features and unknown actions are denied.
func (p Permissions) HasPermission(feature string, action Action) bool {
	flags, ok := p.byName[feature]
	if !ok {
		return false
	}
	return flags.allows(action)
}

func (p Permissions) CanRead(feature string) bool {
	return p.HasPermission(feature, ActionRead)
}

func (p Permissions) CanCreate(feature string) bool {
	return p.HasPermission(feature, ActionCreate)
}

func (p Permissions) CanUpdate(feature string) bool {
	return p.HasPermission(feature, ActionUpdate)
}

func (p Permissions) CanDelete(feature string) bool {
	return p.HasPermission(feature, ActionDelete)
}

func (p Permissions) CanPrint(feature string) bool {
	return p.HasPermission(feature, ActionPrint)
}

// FeaturePermissions returns every flag for feature at once
func (p Permissions) FeaturePermissions(feature string) Flags {
	return Flags{
		CanCreate: p.CanCreate(feature),
		CanRead:   p.CanRead(feature),
		CanUpdate: p.CanUpdate(feature),
		CanDelete: p.CanDelete(feature),
		CanPrint:  p.CanPrint(feature),
	}
}
