package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/internal/domain"
	"github.com/openshelf/circulate/internal/service"
)

// RegisterMemberRequest represents a membership application
type RegisterMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Tier  string `json:"tier,omitempty"` // REGULAR (default) or VIP
	ID    string `json:"id,omitempty"`   // generated when absent
}

// MemberResponse is the JSON view of a member account
type MemberResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Tier         string  `json:"tier"`
	Status       string  `json:"status"`
	CreditScore  int     `json:"creditScore"`
	Fines        float64 `json:"fines"`
	OpenLoans    int     `json:"openLoans"`
	Reservations int     `json:"reservations"`
}

// MemberHandler handles member registration and lookup
type MemberHandler struct {
	library *service.LibraryService
	logger  *slog.Logger
}

// NewMemberHandler creates a member handler
func NewMemberHandler(library *service.LibraryService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{library: library, logger: logger}
}

// Register handles POST /api/members
func (h *MemberHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	var user *domain.User
	switch req.Tier {
	case "", string(domain.TierRegular):
		user = domain.NewRegularUser(req.Name, req.ID)
	case string(domain.TierVIP):
		user = domain.NewVIPUser(req.Name, req.ID)
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "tier must be REGULAR or VIP"})
		return
	}
	user.Email = req.Email
	user.Phone = req.Phone

	if err := h.library.RegisterUser(user); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, memberView(user))
}

// Get handles GET /api/members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.library.GetUser(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memberView(user))
}

// List handles GET /api/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	users := h.library.ListUsers()
	out := make([]MemberResponse, 0, len(users))
	for _, u := range users {
		out = append(out, memberView(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func memberView(u *domain.User) MemberResponse {
	open := 0
	for _, rec := range u.Records() {
		if rec.Open() {
			open++
		}
	}
	return MemberResponse{
		ID:           u.ID,
		Name:         u.Name,
		Tier:         string(u.Tier()),
		Status:       string(u.Status()),
		CreditScore:  u.CreditScore(),
		Fines:        u.Fines(),
		OpenLoans:    open,
		Reservations: len(u.Reservations()),
	}
}
