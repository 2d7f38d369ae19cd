package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"workspace-kit/internal/membership/domain"
)

type fakeMembershipRepo struct {
	mu sync.Mutex
	// inviteCode -> workspaceID
	workspaces map[string]string
	// workspaceID -> role name -> role id
	roles map[string]map[string]string
	// workspaceID -> userID -> roleID
	members map[string]map[string]string
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{
		workspaces: map[string]string{},
		roles:      map[string]map[string]string{},
		members:    map[string]map[string]string{},
	}
}

func (f *fakeMembershipRepo) addWorkspace(id, inviteCode string, roleNames ...string) {
	f.workspaces[inviteCode] = id
	f.roles[id] = map[string]string{}
	for _, name := range roleNames {
		f.roles[id][name] = "role-" + id + "-" + name
	}
	f.members[id] = map[string]string{}
}

func (f *fakeMembershipRepo) FindJoinTarget(_ context.Context, inviteCode string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wsID, ok := f.workspaces[inviteCode]
	if !ok {
		return "", "", nil
	}
	names := []string{}
	for name := range f.roles[wsID] {
		if name != "Admin" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", "", nil
	}
	sort.Strings(names)
	return wsID, f.roles[wsID][names[0]], nil
}

func (f *fakeMembershipRepo) AddMember(_ context.Context, workspaceID, userID, roleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.members[workspaceID][userID]; exists {
		return false, nil
	}
	f.members[workspaceID][userID] = roleID
	return true, nil
}

func (f *fakeMembershipRepo) Remove(_ context.Context, workspaceID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[workspaceID], userID)
	return nil
}

func (f *fakeMembershipRepo) ListMembers(_ context.Context, workspaceID string) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Member{}
	for userID, roleID := range f.members[workspaceID] {
		out = append(out, domain.Member{UserID: userID, RoleName: roleID})
	}
	return out, nil
}

func (f *fakeMembershipRepo) UpdateMemberRole(_ context.Context, workspaceID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.members[workspaceID][userID]; exists {
		f.members[workspaceID][userID] = roleID
	}
	return nil
}

func TestJoin_PicksLexicallyFirstRole(t *testing.T) {
	repo := newFakeMembershipRepo()
	repo.addWorkspace("ws-1", "code-1", "Admin", "Viewer", "Editor")
	svc := NewMembershipService(repo)

	wsID, err := svc.Join(context.Background(), "user-1", "code-1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if wsID != "ws-1" {
		t.Errorf("workspace = %q, want ws-1", wsID)
	}
	if got := repo.members["ws-1"]["user-1"]; got != "role-ws-1-Editor" {
		t.Errorf("assigned role = %q, want Editor's id", got)
	}
}

func TestJoin_NeverAssignsAdmin(t *testing.T) {
	repo := newFakeMembershipRepo()
	repo.addWorkspace("ws-1", "code-1", "Admin", "Zebra")
	svc := NewMembershipService(repo)

	if _, err := svc.Join(context.Background(), "user-1", "code-1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got := repo.members["ws-1"]["user-1"]; got != "role-ws-1-Zebra" {
		t.Errorf("assigned role = %q, want Zebra's id", got)
	}
}

func TestJoin_UnknownCode(t *testing.T) {
	svc := NewMembershipService(newFakeMembershipRepo())
	if _, err := svc.Join(context.Background(), "user-1", "no-such-code"); !errors.Is(err, ErrInvalidInviteCode) {
		t.Fatalf("err = %v, want ErrInvalidInviteCode", err)
	}
}

func TestJoin_AdminOnlyWorkspace(t *testing.T) {
	repo := newFakeMembershipRepo()
	repo.addWorkspace("ws-1", "code-1", "Admin")
	svc := NewMembershipService(repo)

	if _, err := svc.Join(context.Background(), "user-1", "code-1"); !errors.Is(err, ErrInvalidInviteCode) {
		t.Fatalf("err = %v, want ErrInvalidInviteCode", err)
	}
}

func TestJoin_SecondJoinFailsWithoutDuplicate(t *testing.T) {
	repo := newFakeMembershipRepo()
	repo.addWorkspace("ws-1", "code-1", "Admin", "Editor")
	svc := NewMembershipService(repo)
	ctx := context.Background()

	if _, err := svc.Join(ctx, "user-1", "code-1"); err != nil {
		t.Fatalf("first Join: %v", err)
	}
	// An existing membership is reported exactly like a bad code.
	if _, err := svc.Join(ctx, "user-1", "code-1"); !errors.Is(err, ErrInvalidInviteCode) {
		t.Fatalf("second Join err = %v, want ErrInvalidInviteCode", err)
	}
	if len(repo.members["ws-1"]) != 1 {
		t.Errorf("memberships = %d, want 1", len(repo.members["ws-1"]))
	}
}

func TestRemove_NonMemberIsNoop(t *testing.T) {
	repo := newFakeMembershipRepo()
	repo.addWorkspace("ws-1", "code-1", "Admin", "Editor")
	svc := NewMembershipService(repo)

	if err := svc.Remove(context.Background(), "ws-1", "ghost"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestAssignRole_UpdatesExistingMember(t *testing.T) {
	repo := newFakeMembershipRepo()
	repo.addWorkspace("ws-1", "code-1", "Admin", "Editor", "Viewer")
	svc := NewMembershipService(repo)
	ctx := context.Background()

	if _, err := svc.Join(ctx, "user-1", "code-1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := svc.AssignRole(ctx, "ws-1", "user-1", "role-ws-1-Viewer"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if got := repo.members["ws-1"]["user-1"]; got != "role-ws-1-Viewer" {
		t.Errorf("role = %q, want Viewer's id", got)
	}
}
