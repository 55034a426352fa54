package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                  "/",
		"/metrics":                          "/metrics",
		"/api/admin/users":                  "/api/admin/users",
		"/api/admin/users/01J3ZK":           "/api/admin/users/:id",
		"/api/admin/users/01J3ZK/extra":     "/api/admin/users/01J3ZK/extra",
		"/api/executive/users/abc":          "/api/executive/users/:id",
		"/api/executive/users?role=HR":      "/api/executive/users",
		"/api/report/general":               "/api/report/:name",
		"/api/account/login":                "/api/account/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
