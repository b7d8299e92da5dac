package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

// assertMoney compares a JSON decimal field against an expected amount.
func assertMoney(t *testing.T, got interface{}, want string) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Fatalf("expected a decimal string, got %T (%v)", got, got)
	}
	gotDec, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("failed to parse decimal %q: %v", s, err)
	}
	wantDec := decimal.RequireFromString(want)
	if !gotDec.Equal(wantDec) {
		t.Errorf("expected amount %s, got %s", want, s)
	}
}

func TestLoanLifecycleFlow(t *testing.T) {
	app := setupApp(t)

	adminToken := app.registerAdmin(t, "loans-admin@example.com")
	studentToken, _ := app.registerStudent(t, "borrower@example.com")
	schemeID := app.createScheme(t, adminToken)

	// Student applies against the scheme.
	rec := app.request("POST", "/api/v1/loans/apply",
		fmt.Sprintf(`{"scheme_id":%d,"notes":"textbooks and rent"}`, int(schemeID)), studentToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply failed: %d %s", rec.Code, rec.Body.String())
	}
	loan := parseJSON(t, rec)["loan"].(map[string]interface{})
	if loan["status"] != "pending" {
		t.Fatalf("expected pending loan, got %v", loan["status"])
	}
	assertMoney(t, loan["principal"], "600")
	loanID := int(loan["id"].(float64))

	// A second application against the same scheme is rejected.
	rec = app.request("POST", "/api/v1/loans/apply",
		fmt.Sprintf(`{"scheme_id":%d}`, int(schemeID)), studentToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "DUPLICATE_LOAN")

	// Students cannot activate loans.
	rec = app.request("POST", fmt.Sprintf("/api/v1/loans/%d/activate", loanID), "", studentToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	// Admin activates the loan.
	rec = app.request("POST", fmt.Sprintf("/api/v1/loans/%d/activate", loanID), "", adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate failed: %d %s", rec.Code, rec.Body.String())
	}
	loan = parseJSON(t, rec)["loan"].(map[string]interface{})
	if loan["status"] != "active" {
		t.Fatalf("expected active loan, got %v", loan["status"])
	}
	assertMoney(t, loan["total_payable"], "630")
	if loan["start_date"] == nil || loan["due_date"] == nil {
		t.Error("expected start and due dates on an active loan")
	}

	// The repayment schedule is visible to the borrower.
	rec = app.request("GET", fmt.Sprintf("/api/v1/loans/%d/repayments", loanID), "", studentToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list repayments failed: %d %s", rec.Code, rec.Body.String())
	}
	repayments := parseJSON(t, rec)["repayments"].([]interface{})
	if len(repayments) != 1 {
		t.Fatalf("expected 1 repayment, got %d", len(repayments))
	}
	first := repayments[0].(map[string]interface{})
	assertMoney(t, first["amount_due"], "630")
	if first["status"] != "pending" {
		t.Errorf("expected pending repayment, got %v", first["status"])
	}

	// Borrower pays the loan off.
	rec = app.request("POST", fmt.Sprintf("/api/v1/loans/%d/payoff", loanID), "", studentToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("payoff failed: %d %s", rec.Code, rec.Body.String())
	}
	loan = parseJSON(t, rec)["loan"].(map[string]interface{})
	if loan["status"] != "paid" {
		t.Fatalf("expected paid loan, got %v", loan["status"])
	}
	if loan["paid_at"] == nil {
		t.Error("expected paid_at to be stamped")
	}

	// Lifecycle events surface as notifications for the borrower.
	rec = app.request("GET", "/api/v1/notifications", "", studentToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list notifications failed: %d %s", rec.Code, rec.Body.String())
	}
	notifications := parseJSON(t, rec)["data"].([]interface{})
	if len(notifications) < 2 {
		t.Errorf("expected at least 2 notifications, got %d", len(notifications))
	}
}

func TestLoanDeclineFlow(t *testing.T) {
	app := setupApp(t)

	adminToken := app.registerAdmin(t, "decline-admin@example.com")
	studentToken, _ := app.registerStudent(t, "declined@example.com")
	schemeID := app.createScheme(t, adminToken)

	rec := app.request("POST", "/api/v1/loans/apply",
		fmt.Sprintf(`{"scheme_id":%d}`, int(schemeID)), studentToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply failed: %d %s", rec.Code, rec.Body.String())
	}
	loanID := int(parseJSON(t, rec)["loan"].(map[string]interface{})["id"].(float64))

	rec = app.request("POST", fmt.Sprintf("/api/v1/loans/%d/decline", loanID),
		`{"note":"insufficient enrollment history"}`, adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("decline failed: %d %s", rec.Code, rec.Body.String())
	}
	loan := parseJSON(t, rec)["loan"].(map[string]interface{})
	if loan["status"] != "closed" {
		t.Fatalf("expected closed loan, got %v", loan["status"])
	}
	if loan["declined_at"] == nil {
		t.Error("expected declined_at to be stamped")
	}

	// A declined loan no longer blocks a fresh application.
	rec = app.request("POST", "/api/v1/loans/apply",
		fmt.Sprintf(`{"scheme_id":%d}`, int(schemeID)), studentToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected re-apply to succeed: %d %s", rec.Code, rec.Body.String())
	}
}
