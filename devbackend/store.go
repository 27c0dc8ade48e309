package devbackend

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-admin-console/apiclient"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/rbac"
)

type roleRecord struct {
	ID          string
	Name        string
	Description string
	Permissions []rbac.RolePermission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *roleRecord) listItem() apiclient.RoleListItem {
	return apiclient.RoleListItem{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// store keeps accounts, roles and features in memory
type store struct {
	lock     sync.RWMutex
	accounts map[string]*Account
	emailIDs map[string]string // email to account id
	roles    map[string]*roleRecord
	features []apiclient.Feature
}

func newStore() *store {
	return &store{
		accounts: make(map[string]*Account),
		emailIDs: make(map[string]string),
		roles:    make(map[string]*roleRecord),
	}
}

// seed creates the features, an Admin role with every permission, a Viewer
// role that can only read the dashboard, and the admin account.
func (s *store) seed(adminEmail, adminPassword string) error {
	now := NowTimeFunc()
	all := rbac.Flags{CanCreate: true, CanRead: true, CanUpdate: true, CanDelete: true, CanPrint: true}

	admin := &roleRecord{ID: uuid.New().String(), Name: "Admin", Description: "Full access", CreatedAt: now, UpdatedAt: now}
	viewer := &roleRecord{ID: uuid.New().String(), Name: "Viewer", Description: "Read-only dashboard", CreatedAt: now, UpdatedAt: now}
	for _, name := range []string{rbac.FeatureDashboard, rbac.FeatureUserManagement, rbac.FeatureRBACManagement} {
		f := apiclient.Feature{
			ID:        uuid.New().String(),
			Name:      name,
			CreatedAt: now.UTC().Format(time.RFC3339),
			UpdatedAt: now.UTC().Format(time.RFC3339),
		}
		s.features = append(s.features, f)
		admin.Permissions = append(admin.Permissions, rbac.RolePermission{FeatureID: f.ID, Flags: all})
		if name == rbac.FeatureDashboard {
			viewer.Permissions = append(viewer.Permissions, rbac.RolePermission{FeatureID: f.ID, Flags: rbac.Flags{CanRead: true}})
		}
	}
	s.roles[admin.ID] = admin
	s.roles[viewer.ID] = viewer

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return errors.Wrapf(err, "hashing admin password")
	}
	return s.upsertAccount(&Account{
		Email:        adminEmail,
		Name:         "Administrator",
		PasswordHash: hash,
		IsActive:     true,
		RoleID:       admin.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *store) upsertAccount(account *Account) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	email := strings.ToLower(account.Email)
	if id, ok := s.emailIDs[email]; ok && id != account.ID {
		return errors.Wrapf(errors.ErrBadRequest, "email %s already in use", account.Email)
	}
	if existing, ok := s.accounts[account.ID]; ok && strings.ToLower(existing.Email) != email {
		delete(s.emailIDs, strings.ToLower(existing.Email))
	}
	s.accounts[account.ID] = account
	s.emailIDs[email] = account.ID
	return nil
}

func (s *store) accountByEmail(email string) (*Account, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	id, ok := s.emailIDs[strings.ToLower(email)]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return s.copyAccount(s.accounts[id]), nil
}

func (s *store) accountByID(id string) (*Account, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return s.copyAccount(a), nil
}

func (s *store) copyAccount(a *Account) *Account {
	c := *a
	return &c
}

func (s *store) deleteAccount(id string) (*Account, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	delete(s.accounts, id)
	delete(s.emailIDs, strings.ToLower(a.Email))
	return a, nil
}

// listAccounts returns accounts matching search (name or email) and role
// (id or name), ordered by creation.
func (s *store) listAccounts(search, role string) []apiclient.ManagedUser {
	s.lock.RLock()
	defer s.lock.RUnlock()

	search = strings.ToLower(search)
	var out []apiclient.ManagedUser
	for _, a := range s.sortedAccounts() {
		roleName := s.roleName(a.RoleID)
		if search != "" && !strings.Contains(strings.ToLower(a.Name), search) && !strings.Contains(strings.ToLower(a.Email), search) {
			continue
		}
		if role != "" && role != a.RoleID && !strings.EqualFold(role, roleName) {
			continue
		}
		out = append(out, a.toManagedUser(roleName))
	}
	return out
}

func (s *store) sortedAccounts() []*Account {
	accounts := make([]*Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].Email < accounts[j].Email
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts
}

func (s *store) roleName(id string) string {
	if r, ok := s.roles[id]; ok {
		return r.Name
	}
	return ""
}

func (s *store) managedUser(a *Account) apiclient.ManagedUser {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return a.toManagedUser(s.roleName(a.RoleID))
}

func (s *store) roleExists(id string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.roles[id]
	return ok
}

func (s *store) role(id string) (apiclient.Role, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	r, ok := s.roles[id]
	if !ok {
		return apiclient.Role{}, errors.ErrNotFound
	}
	return s.roleView(r), nil
}

// roleView attaches the feature reference to each permission
func (s *store) roleView(r *roleRecord) apiclient.Role {
	perms := make([]rbac.RolePermission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		if f, ok := s.feature(p.FeatureID); ok {
			p.Feature = &rbac.PermissionFeature{ID: f.ID, Name: f.Name}
		}
		perms = append(perms, p)
	}
	return apiclient.Role{RoleListItem: r.listItem(), Permissions: perms}
}

func (s *store) feature(id string) (apiclient.Feature, bool) {
	for _, f := range s.features {
		if f.ID == id {
			return f, true
		}
	}
	return apiclient.Feature{}, false
}

func (s *store) listRoles(search string) []apiclient.RoleListItem {
	s.lock.RLock()
	defer s.lock.RUnlock()

	search = strings.ToLower(search)
	var out []apiclient.RoleListItem
	for _, r := range s.sortedRoles() {
		if search != "" && !strings.Contains(strings.ToLower(r.Name), search) {
			continue
		}
		out = append(out, r.listItem())
	}
	return out
}

func (s *store) sortedRoles() []*roleRecord {
	roles := make([]*roleRecord, 0, len(s.roles))
	for _, r := range s.roles {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles
}

func (s *store) saveRole(id string, in apiclient.RoleInput) (apiclient.Role, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := NowTimeFunc()
	r, ok := s.roles[id]
	if id != "" && !ok {
		return apiclient.Role{}, errors.ErrNotFound
	}
	for _, other := range s.roles {
		if other.ID != id && strings.EqualFold(other.Name, in.Name) {
			return apiclient.Role{}, errors.Wrapf(errors.ErrBadRequest, "role %s already exists", in.Name)
		}
	}
	if !ok {
		r = &roleRecord{ID: uuid.New().String(), CreatedAt: now}
		s.roles[r.ID] = r
	}
	r.Name = in.Name
	r.Description = in.Description
	r.UpdatedAt = now
	r.Permissions = r.Permissions[:0]
	for _, p := range in.Permissions {
		if _, known := s.feature(p.FeatureID); !known {
			continue
		}
		r.Permissions = append(r.Permissions, rbac.RolePermission{FeatureID: p.FeatureID, Flags: p.Flags})
	}
	return s.roleView(r), nil
}

// deleteRole refuses to remove a role that still has members
func (s *store) deleteRole(id string) (apiclient.RoleListItem, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	r, ok := s.roles[id]
	if !ok {
		return apiclient.RoleListItem{}, errors.ErrNotFound
	}
	for _, a := range s.accounts {
		if a.RoleID == id {
			return apiclient.RoleListItem{}, errors.Wrapf(errors.ErrBadRequest, "role %s is assigned to users", r.Name)
		}
	}
	delete(s.roles, id)
	return r.listItem(), nil
}

func (s *store) permissionsFor(roleID string) rbac.MyPermissions {
	s.lock.RLock()
	defer s.lock.RUnlock()

	mine := rbac.MyPermissions{Permissions: []rbac.MyPermission{}}
	r, ok := s.roles[roleID]
	if !ok {
		return mine
	}
	mine.RoleName = r.Name
	for _, p := range r.Permissions {
		f, known := s.feature(p.FeatureID)
		if !known {
			continue
		}
		mine.Permissions = append(mine.Permissions, rbac.MyPermission{FeatureID: f.ID, FeatureName: f.Name, Flags: p.Flags})
	}
	return mine
}

func (s *store) listFeatures() []apiclient.Feature {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]apiclient.Feature(nil), s.features...)
}

func (s *store) stats() apiclient.DashboardData {
	s.lock.RLock()
	defer s.lock.RUnlock()

	data := apiclient.DashboardData{
		TotalUsers:    len(s.accounts),
		TotalRoles:    len(s.roles),
		TotalFeatures: len(s.features),
	}
	counts := map[string]int{}
	for _, a := range s.accounts {
		if a.IsActive {
			data.ActiveUsers++
		} else {
			data.InactiveUsers++
		}
		counts[a.RoleID]++
	}
	for _, r := range s.sortedRoles() {
		data.UserDistribution = append(data.UserDistribution, apiclient.UserDistribution{RoleName: r.Name, Count: counts[r.ID]})
	}
	return data
}
