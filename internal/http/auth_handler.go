package api

import (
	"net/http"

	"opinex/internal/domain/user"
	"opinex/internal/platform/apperr"
)

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

type userExistRequest struct {
	Email string `json:"email"`
}

type userExistResponse struct {
	UserExist bool       `json:"userExist"`
	Result    *user.User `json:"result,omitempty"`
}

// @Summary     Issue access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request  body      tokenRequest  true  "Credentials"
// @Success     200      {object}  tokenResponse
// @Failure     400      {object}  map[string]string  "invalid body"
// @Failure     401      {object}  map[string]string  "invalid credentials"
// @Router      /jwt [post]
func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	u, err := h.userSvc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	token, err := h.jwtMgr.Generate(u.ID, u.Email, string(u.Role))
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresIn: int64(h.jwtMgr.TTL().Seconds())})
}

// @Summary     Register user
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       request  body      registerRequest  true  "New user"
// @Success     201      {object}  user.User
// @Failure     400      {object}  map[string]string  "invalid body, email or password"
// @Failure     409      {object}  map[string]string  "email taken"
// @Router      /user [post]
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	u, err := h.userSvc.Register(r.Context(), user.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// @Summary     Check whether a user exists
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       request  body      userExistRequest  true  "Email to look up"
// @Success     200      {object}  userExistResponse
// @Failure     400      {object}  map[string]string  "invalid email"
// @Router      /is_user_exist [post]
func (h *Handler) handleIsUserExist(w http.ResponseWriter, r *http.Request) {
	var req userExistRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	u, ok, err := h.userSvc.Lookup(r.Context(), req.Email)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, userExistResponse{UserExist: false})
		return
	}
	writeJSON(w, http.StatusOK, userExistResponse{UserExist: true, Result: u})
}
