package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
	"github.com/omovigho/student-finance-tracker/internal/services"
)

type mockLoanService struct {
	applyFn    func(userID, schemeID uint, notes string) (*models.Loan, error)
	activateFn func(adminID, loanID uint) (*models.Loan, error)
	declineFn  func(adminID, loanID uint, note string) (*models.Loan, error)
	payoffFn   func(userID, loanID uint) (*models.Loan, error)
	summaryFn  func(userID uint) ([]services.LoanSummaryEntry, error)
}

func (m *mockLoanService) Apply(userID, schemeID uint, notes string) (*models.Loan, error) {
	if m.applyFn != nil {
		return m.applyFn(userID, schemeID, notes)
	}
	return &models.Loan{Status: models.LoanStatusPending}, nil
}

func (m *mockLoanService) Activate(adminID, loanID uint) (*models.Loan, error) {
	if m.activateFn != nil {
		return m.activateFn(adminID, loanID)
	}
	return &models.Loan{Status: models.LoanStatusActive}, nil
}

func (m *mockLoanService) Decline(adminID, loanID uint, note string) (*models.Loan, error) {
	if m.declineFn != nil {
		return m.declineFn(adminID, loanID, note)
	}
	return &models.Loan{Status: models.LoanStatusClosed}, nil
}

func (m *mockLoanService) Payoff(userID, loanID uint) (*models.Loan, error) {
	if m.payoffFn != nil {
		return m.payoffFn(userID, loanID)
	}
	return &models.Loan{Status: models.LoanStatusPaid}, nil
}

func (m *mockLoanService) GetLoanByID(_ uint, _ models.Role, loanID uint) (*models.Loan, error) {
	return &models.Loan{Base: models.Base{ID: loanID}}, nil
}

func (m *mockLoanService) ListLoans(_ uint, _ models.Role, _ *models.LoanStatus, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error) {
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Loan{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockLoanService) ListRepayments(_ uint, _ models.Role, _ uint) ([]models.Repayment, error) {
	return []models.Repayment{}, nil
}

func (m *mockLoanService) Summary(userID uint) ([]services.LoanSummaryEntry, error) {
	if m.summaryFn != nil {
		return m.summaryFn(userID)
	}
	return []services.LoanSummaryEntry{}, nil
}

func (m *mockLoanService) History(_ uint) (services.LoanHistory, error) {
	return services.LoanHistory{}, nil
}

func (m *mockLoanService) AdminHistory() (*services.AdminLoanHistory, error) {
	return &services.AdminLoanHistory{}, nil
}

func setupLoanRouter(handler *LoanHandler, uid uint, role models.Role) *gin.Engine {
	r := gin.New()
	auth := injectUser(uid, role)
	r.POST("/loans/apply", auth, handler.ApplyLoan)
	r.POST("/loans/:id/activate", auth, handler.ActivateLoan)
	r.POST("/loans/:id/decline", auth, handler.DeclineLoan)
	r.POST("/loans/:id/payoff", auth, handler.PayoffLoan)
	r.GET("/loans", auth, handler.ListLoans)
	r.GET("/loans/summary", auth, handler.LoanSummary)
	return r
}

func TestLoanHandler_Apply(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockLoanService{
			applyFn: func(userID, schemeID uint, _ string) (*models.Loan, error) {
				if userID != 3 || schemeID != 9 {
					t.Errorf("unexpected args: user %d scheme %d", userID, schemeID)
				}
				return &models.Loan{Base: models.Base{ID: 1}, Status: models.LoanStatusPending}, nil
			},
		}
		r := setupLoanRouter(NewLoanHandler(svc), 3, models.RoleStudent)

		rec := doRequest(r, "POST", "/loans/apply", `{"scheme_id":9,"notes":"books"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		loan := parseJSON(t, rec)["loan"].(map[string]interface{})
		if loan["status"] != "pending" {
			t.Errorf("expected pending loan, got %v", loan["status"])
		}
	})

	t.Run("returns 400 on missing scheme", func(t *testing.T) {
		r := setupLoanRouter(NewLoanHandler(&mockLoanService{}), 3, models.RoleStudent)

		rec := doRequest(r, "POST", "/loans/apply", `{"notes":"books"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 409 on duplicate loan", func(t *testing.T) {
		svc := &mockLoanService{
			applyFn: func(_, _ uint, _ string) (*models.Loan, error) {
				return nil, apperrors.ErrDuplicateLoan
			},
		}
		r := setupLoanRouter(NewLoanHandler(svc), 3, models.RoleStudent)

		rec := doRequest(r, "POST", "/loans/apply", `{"scheme_id":9}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_LOAN")
	})
}

func TestLoanHandler_Transitions(t *testing.T) {
	t.Run("activate_maps_forbidden_to_403", func(t *testing.T) {
		svc := &mockLoanService{
			activateFn: func(_, _ uint) (*models.Loan, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		r := setupLoanRouter(NewLoanHandler(svc), 3, models.RoleStudent)

		rec := doRequest(r, "POST", "/loans/5/activate", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FORBIDDEN")
	})

	t.Run("activate_returns_loan", func(t *testing.T) {
		r := setupLoanRouter(NewLoanHandler(&mockLoanService{}), 1, models.RoleAdmin)

		rec := doRequest(r, "POST", "/loans/5/activate", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("decline_accepts_empty_body", func(t *testing.T) {
		r := setupLoanRouter(NewLoanHandler(&mockLoanService{}), 1, models.RoleAdmin)

		rec := doRequest(r, "POST", "/loans/5/decline", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("payoff_maps_invalid_state_to_409", func(t *testing.T) {
		svc := &mockLoanService{
			payoffFn: func(_, _ uint) (*models.Loan, error) {
				return nil, apperrors.ErrInvalidLoanState
			},
		}
		r := setupLoanRouter(NewLoanHandler(svc), 3, models.RoleStudent)

		rec := doRequest(r, "POST", "/loans/5/payoff", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_STATE")
	})

	t.Run("bad_path_id_is_rejected", func(t *testing.T) {
		r := setupLoanRouter(NewLoanHandler(&mockLoanService{}), 1, models.RoleAdmin)

		rec := doRequest(r, "POST", "/loans/abc/activate", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestLoanHandler_ListAndSummary(t *testing.T) {
	t.Run("unknown_status_filter_rejected", func(t *testing.T) {
		r := setupLoanRouter(NewLoanHandler(&mockLoanService{}), 3, models.RoleStudent)

		rec := doRequest(r, "GET", "/loans?status=vaporised", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("summary_returns_entries", func(t *testing.T) {
		svc := &mockLoanService{
			summaryFn: func(_ uint) ([]services.LoanSummaryEntry, error) {
				return []services.LoanSummaryEntry{{LoanID: 1, AmountDue: "630.00", OutstandingBalance: "630.00"}}, nil
			},
		}
		r := setupLoanRouter(NewLoanHandler(svc), 3, models.RoleStudent)

		rec := doRequest(r, "GET", "/loans/summary", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		entries := result["loans"].([]interface{})
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
	})
}
