// User HTTP handlers: profiles, privacy, search, another user's wish list and
// reputation.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/services"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/utils"
)

// SearchUsers godoc
// @ID          searchUsers
// @Summary     Search users by nickname prefix
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       q      query     string  true   "Nickname prefix"
// @Param       limit  query     int     false  "Max results"  minimum(1) maximum(50) default(20)
// @Success     200    {object}  handlers.Envelope{data=[]domain.UserSummary}
// @Failure     400    {object}  handlers.ErrorResponse
// @Router      /users/search [get]
func (h *Handlers) SearchUsers(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q is required")
		return
	}
	users, err := h.profiles.Search(c.Request.Context(), uid, q, utils.AtoiDefault(c.Query("limit"), 0))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Privacy-filtered profile of a user
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "User ID"
// @Success     200  {object}  handlers.Envelope{data=services.Profile}
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id} [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	target, valid := pathID(c, "id")
	if !valid {
		return
	}
	p, err := h.profiles.Get(c.Request.Context(), uid, target)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update own profile
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.ProfilePatch  true  "Fields to change"
// @Success     200   {object}  handlers.Envelope{data=domain.User}
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse  "Email or nickname taken"
// @Router      /users/me [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.profiles.UpdateMe(c.Request.Context(), uid, patch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteMe godoc
// @ID          deleteMe
// @Summary     Delete own account
// @Description Removes the account with its contacts, wishes, notifications and votes. Reservations held by the user are released.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.Envelope
// @Router      /users/me [delete]
func (h *Handlers) DeleteMe(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	if err := h.profiles.DeleteAccount(c.Request.Context(), uid); err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "account deleted", nil)
}

// GetPrivacy godoc
// @ID          getPrivacy
// @Summary     Own privacy settings
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.Envelope{data=domain.PrivacySettings}
// @Router      /users/me/privacy [get]
func (h *Handlers) GetPrivacy(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	p, err := h.profiles.GetPrivacy(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdatePrivacy godoc
// @ID          updatePrivacy
// @Summary     Change privacy settings
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.PrivacyPatch  true  "Flags to change"
// @Success     200   {object}  handlers.Envelope{data=domain.PrivacySettings}
// @Router      /users/me/privacy [put]
func (h *Handlers) UpdatePrivacy(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	var patch services.PrivacyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.profiles.UpdatePrivacy(c.Request.Context(), uid, patch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// ListUserWishes godoc
// @ID          listUserWishes
// @Summary     Another user's wish list
// @Description Visible to accepted contacts, or to anyone when the owner made the list public.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Owner user ID"
// @Success     200  {object}  handlers.Envelope{data=[]domain.Wish}
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id}/wishes [get]
func (h *Handlers) ListUserWishes(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	owner, valid := pathID(c, "id")
	if !valid {
		return
	}
	items, err := h.wishes.ListFor(c.Request.Context(), uid, owner)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetReputation godoc
// @ID          getReputation
// @Summary     Reputation tally of a user
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "User ID"
// @Success     200  {object}  handlers.Envelope{data=domain.ReputationTally}
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id}/reputation [get]
func (h *Handlers) GetReputation(c *gin.Context) {
	if _, found := callerID(c); !found {
		return
	}
	target, valid := pathID(c, "id")
	if !valid {
		return
	}
	t, err := h.rep.Tally(c.Request.Context(), target)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// Vote godoc
// @ID          vote
// @Summary     Vote on a user's reputation
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                    true  "User ID"
// @Param       body  body      services.VoteInput     true  "Vote"
// @Success     201   {object}  handlers.Envelope{data=domain.ReputationVote}
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse  "Already voted for this promise"
// @Router      /users/{id}/reputation [post]
func (h *Handlers) Vote(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	target, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req services.VoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.rep.Vote(c.Request.Context(), uid, target, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, v)
}
