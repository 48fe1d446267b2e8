// Account HTTP handlers.
//
//   - POST /auth/register  (create account, returns user + token)
//   - POST /auth/login     (authenticate, returns user + token)
//   - GET  /auth/me        (current user)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/services"
)

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email" example:"ana@example.com"`
	Password string `json:"password" binding:"required"       example:"s3cretpass"`
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.RegisterInput  true  "Account data"
// @Success     201   {object}  handlers.Envelope{data=services.AuthResult}
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409   {object}  handlers.ErrorResponse  "Email or nickname taken"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// Login godoc
// @ID          login
// @Summary     Authenticate
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.Envelope{data=services.AuthResult}
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// Me godoc
// @ID          me
// @Summary     Current user
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.Envelope{data=domain.User}
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	u, err := h.auth.Me(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
