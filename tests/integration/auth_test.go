package integration

import (
	"net/http"
	"testing"
)

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)

	t.Run("register, login and fetch profile", func(t *testing.T) {
		token, _ := app.registerStudent(t, "casey@example.com")

		rec := app.request("GET", "/api/v1/profile", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["email"] != "casey@example.com" {
			t.Errorf("expected email casey@example.com, got %v", user["email"])
		}
		if user["role"] != "student" {
			t.Errorf("expected role student, got %v", user["role"])
		}

		rec = app.request("POST", "/api/v1/auth/login",
			`{"email":"casey@example.com","password":"password123"}`, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["token"] == "" {
			t.Error("expected a token in the login response")
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		app.registerStudent(t, "dupe@example.com")

		rec := app.request("POST", "/api/v1/auth/register",
			`{"email":"dupe@example.com","password":"password123"}`, "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, rec, "DUPLICATE_EMAIL")
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		app.registerStudent(t, "login@example.com")

		rec := app.request("POST", "/api/v1/auth/login",
			`{"email":"login@example.com","password":"wrong-password"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, rec, "INVALID_CREDENTIALS")
	})

	t.Run("protected route requires a token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/profile", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
