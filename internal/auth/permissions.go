package auth

const (
	PermDocumentsRead  = "documents.read"
	PermReviewDecide   = "review.decide"
	PermReviewBulk     = "review.bulk"
	PermAuditRead      = "audit.read"
	PermKeywordsRead   = "keywords.read"
	PermKeywordsManage = "keywords.manage"
	PermAdminView      = "admin.view"
)

var permissionKeys = []string{
	PermDocumentsRead, PermReviewDecide, PermReviewBulk, PermAuditRead,
	PermKeywordsRead, PermKeywordsManage, PermAdminView,
}

var rolePermissions = map[Role]map[string]struct{}{
	RoleAdmin: set(
		PermDocumentsRead, PermReviewDecide, PermReviewBulk, PermAuditRead,
		PermKeywordsRead, PermKeywordsManage, PermAdminView,
	),
	RoleReviewer: set(
		PermDocumentsRead, PermReviewDecide, PermReviewBulk, PermKeywordsRead,
	),
	RolePublisher: set(
		PermDocumentsRead, PermReviewDecide, PermKeywordsRead,
	),
}

// RoleHasPermission reports whether role grants key.
func RoleHasPermission(role Role, key string) bool {
	_, ok := rolePermissions[role][key]
	return ok
}

// Permissions lists the keys granted to role in a stable order.
func Permissions(role Role) []string {
	var out []string
	for _, k := range permissionKeys {
		if RoleHasPermission(role, k) {
			out = append(out, k)
		}
	}
	return out
}

// NavEntry is one sidebar entry of the dashboard.
type NavEntry struct {
	Key      string `json:"key"`
	Path     string `json:"path"`
	LabelKey string `json:"label_key"`
	// Permission required to see the entry; empty means every signed-in user.
	Permission string `json:"-"`
}

var navigation = []NavEntry{
	{Key: "dashboard", Path: "/", LabelKey: "nav.dashboard"},
	{Key: "documents", Path: "/documents", LabelKey: "nav.documents", Permission: PermDocumentsRead},
	{Key: "review", Path: "/review", LabelKey: "nav.review", Permission: PermReviewDecide},
	{Key: "audit", Path: "/audit", LabelKey: "nav.audit", Permission: PermAuditRead},
	{Key: "settings", Path: "/settings", LabelKey: "nav.settings", Permission: PermKeywordsRead},
	{Key: "admin", Path: "/admin", LabelKey: "nav.admin", Permission: PermAdminView},
}

// Navigation returns the entries visible to role, in sidebar order.
func Navigation(role Role) []NavEntry {
	out := make([]NavEntry, 0, len(navigation))
	for _, e := range navigation {
		if e.Permission == "" || RoleHasPermission(role, e.Permission) {
			out = append(out, e)
		}
	}
	return out
}

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}
