package realtime

import (
	"sort"
	"testing"
)

func TestRegistryJoinLeave(t *testing.T) {
	r := NewRegistry()

	r.Join("s1", "admin_room")
	r.Join("s2", "admin_room")
	r.Join("s1", "admin_room") // idempotent

	members := r.MembersOf("admin_room")
	sort.Strings(members)
	if len(members) != 2 || members[0] != "s1" || members[1] != "s2" {
		t.Fatalf("unexpected members: %v", members)
	}

	r.Leave("s1", "admin_room")
	if r.IsMember("s1", "admin_room") {
		t.Fatalf("s1 should have left")
	}
	if !r.IsMember("s2", "admin_room") {
		t.Fatalf("s2 should still be a member")
	}

	// leaving a room never joined is a no-op
	r.Leave("s2", "no_such_room")
	if r.MemberCount("admin_room") != 1 {
		t.Fatalf("expected 1 member, got %d", r.MemberCount("admin_room"))
	}
}

func TestRegistryRemoveSession(t *testing.T) {
	r := NewRegistry()

	r.Join("s1", "admin_room")
	r.Join("s1", "alerts")
	r.Join("s2", "alerts")

	r.RemoveSession("s1")

	if r.IsMember("s1", "admin_room") || r.IsMember("s1", "alerts") {
		t.Fatalf("s1 should be gone from every room")
	}
	if !r.IsMember("s2", "alerts") {
		t.Fatalf("s2 should be unaffected")
	}
	if r.MemberCount("admin_room") != 0 {
		t.Fatalf("admin_room should be empty")
	}
}

func TestRegistryDropRoom(t *testing.T) {
	r := NewRegistry()

	r.Join("s1", "stream:cam-1")
	r.Join("s2", "stream:cam-1")
	r.Join("s1", "alerts")

	r.DropRoom("stream:cam-1")

	if r.MemberCount("stream:cam-1") != 0 {
		t.Fatalf("dropped room should have no members")
	}
	if !r.IsMember("s1", "alerts") {
		t.Fatalf("other rooms should be untouched")
	}
}

func TestRegistryMembersOfSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Join("s1", "alerts")

	members := r.MembersOf("alerts")
	r.Join("s2", "alerts")

	if len(members) != 1 {
		t.Fatalf("snapshot should not observe later joins, got %v", members)
	}
}
