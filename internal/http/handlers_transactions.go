package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/records"
)

// transactionRequest is the body of create and update calls. Kind defaults
// to expense; occurred_at defaults to now and is ignored on update.
type transactionRequest struct {
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Category    *string    `json:"category"`
	Kind        string     `json:"kind"`
	OccurredAt  string     `json:"occurred_at,omitempty"`
}

func (req transactionRequest) kind() (core.Kind, error) {
	if strings.TrimSpace(req.Kind) == "" {
		return core.Expense, nil
	}
	return core.ParseKind(req.Kind)
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	kind, err := req.kind()
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		Amount:      req.Amount,
		Description: sanitizeInput(req.Description),
		Category:    optionalString(req.Category),
		Kind:        kind,
	}
	if v := strings.TrimSpace(req.OccurredAt); v != "" {
		t, err := core.ParseTimestamp(v)
		if err != nil {
			return core.Transaction{}, &core.ValidationError{Field: "occurred_at", Reason: "must be a date or RFC 3339 timestamp"}
		}
		tx.OccurredAt = t
	}
	return tx, nil
}

func (req transactionRequest) toChanges() (records.Changes, error) {
	kind, err := req.kind()
	if err != nil {
		return records.Changes{}, err
	}
	return records.Changes{
		Amount:      req.Amount,
		Description: sanitizeInput(req.Description),
		Category:    optionalString(req.Category),
		Kind:        kind,
	}, nil
}

func categoryName(c *string) string {
	if c == nil {
		return ""
	}
	return *c
}

// handleTransactions lists (GET) or creates (POST) the owner's transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, owner int64) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r, owner)
	case http.MethodPost:
		s.createTransaction(w, r, owner)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, owner int64) {
	q := r.URL.Query()
	kind, err := ParseKindFilter(q)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	dateRange, err := ParseDateRange(q)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	limit, err := ParseLimit(q)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	txs, err := s.backend.Store.Transactions.List(r.Context(), owner, records.Filter{
		Kind:     kind,
		Category: sanitizeInput(q.Get("category")),
		Range:    dateRange,
		Limit:    limit,
	})
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, owner int64) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	created, err := s.backend.Transactions.Create(r.Context(), owner, tx)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogTransaction(r.Context(), applog.OpCreate,
		owner, created.ID, string(created.Kind), created.Amount.Cents, categoryName(created.Category))
	writeJSON(w, http.StatusCreated, created)
}

// handleTransaction reads, replaces or deletes one transaction.
func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request, owner int64) {
	id, err := ParsePathID(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		tx, err := s.backend.Store.Transactions.Get(r.Context(), owner, id)
		if err != nil {
			writeError(w, r, applog.OpRead, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)

	case http.MethodPut:
		var req transactionRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		changes, err := req.toChanges()
		if err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
		updated, err := s.backend.Transactions.Update(r.Context(), owner, id, changes)
		if err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogTransaction(r.Context(), applog.OpUpdate,
			owner, updated.ID, string(updated.Kind), updated.Amount.Cents, categoryName(updated.Category))
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.backend.Transactions.Delete(r.Context(), owner, id); err != nil {
			writeError(w, r, applog.OpDelete, err)
			return
		}
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted",
			applog.FieldTransactionID, id)
		w.WriteHeader(http.StatusNoContent)

	default:
		MethodNotAllowedError("GET, PUT, DELETE").Write(w)
	}
}

type balanceResponse struct {
	StartingBalance core.Money `json:"starting_balance"`
	CurrentBalance  core.Money `json:"current_balance"`
}

type balanceRequest struct {
	Amount core.Money `json:"amount"`
}

// handleBalance reports (GET) or replaces (PUT) the starting balance.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, owner int64) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req balanceRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		if err := s.backend.Store.Transactions.SetStartingBalance(r.Context(), owner, req.Amount); err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
	default:
		MethodNotAllowedError("GET, PUT").Write(w)
		return
	}

	start, err := s.backend.Store.Transactions.StartingBalance(r.Context(), owner)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	current, err := s.backend.Store.Transactions.CurrentBalance(r.Context(), owner)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{StartingBalance: start, CurrentBalance: current})
}
