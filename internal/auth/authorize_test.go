package auth

import (
	"context"
	"errors"
	"testing"
)

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role Role
		perm string
		want bool
	}{
		{RoleAdmin, PermAuditRead, true},
		{RoleAdmin, PermKeywordsManage, true},
		{RoleReviewer, PermReviewBulk, true},
		{RoleReviewer, PermAuditRead, false},
		{RolePublisher, PermReviewDecide, true},
		{RolePublisher, PermReviewBulk, false},
		{Role("Guest"), PermDocumentsRead, false},
	}
	for _, tc := range cases {
		if got := RoleHasPermission(tc.role, tc.perm); got != tc.want {
			t.Fatalf("%s/%s: got %v want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestNavigationByRole(t *testing.T) {
	keys := func(r Role) []string {
		var out []string
		for _, e := range Navigation(r) {
			out = append(out, e.Key)
		}
		return out
	}
	if got := keys(RoleAdmin); len(got) != 6 {
		t.Fatalf("admin should see all entries, got %v", got)
	}
	for _, k := range keys(RolePublisher) {
		if k == "audit" || k == "admin" {
			t.Fatalf("publisher must not see %s", k)
		}
	}
}

func TestRequire(t *testing.T) {
	if _, err := Require(context.Background(), PermDocumentsRead); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	ctx := ContextWithPrincipal(context.Background(), Principal{Name: "omar", Role: RolePublisher})
	if _, err := Require(ctx, PermAuditRead); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	p, err := Require(ctx, PermReviewDecide)
	if err != nil || p.Name != "omar" {
		t.Fatalf("Require: %v %+v", err, p)
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" reviewer "); !ok || r != RoleReviewer {
		t.Fatalf("ParseRole: %q %v", r, ok)
	}
	if _, ok := ParseRole("root"); ok {
		t.Fatalf("unexpected role")
	}
	if RoleAdmin.Key() != "admin" {
		t.Fatalf("Key: %s", RoleAdmin.Key())
	}
}

func TestPermissionsListsGrantedKeys(t *testing.T) {
	got := Permissions(RolePublisher)
	want := []string{PermDocumentsRead, PermReviewDecide, PermKeywordsRead}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if len(Permissions(RoleAdmin)) != len(permissionKeys) {
		t.Fatalf("admin should hold every permission")
	}
}
