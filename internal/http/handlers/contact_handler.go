// Contact HTTP handlers.
//
//   - GET    /contacts                (list, ETag support)
//   - GET    /contacts/birthdays      (upcoming birthdays of accepted contacts)
//   - POST   /contacts/request        (send request)
//   - PUT    /contacts/{id}/accept    (recipient accepts)
//   - PUT    /contacts/{id}/reject    (recipient rejects)
//   - PUT    /contacts/{id}/respond   (accept or reject by body status)
//   - DELETE /contacts/{id}           (remove, cancels reservations between the pair)
//   - DELETE /contacts/{id}/block     (block, cancels reservations between the pair)
//   - PUT    /contacts/{id}/unblock   (blocker lifts the block)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/sysutil"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/utils"
)

const defaultBirthdayWindow = 30

// ContactRequest is the JSON payload for sending a contact request.
type ContactRequest struct {
	ContactID uint `json:"contactId" binding:"required" example:"2"`
}

// RespondRequest is the JSON payload for answering a pending request.
type RespondRequest struct {
	Status domain.ContactStatus `json:"status" binding:"required" example:"accepted"`
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List the caller's contact rows
// @Description Returns rows where the caller is either party. Supports weak ETag via If-None-Match.
// @Tags        Contacts
// @Produce     json
// @Security    BearerAuth
// @Param       status         query   string  false  "Filter"  Enums(pending, accepted, rejected, blocked)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.Envelope{data=[]services.ContactView}
// @Header      200  {string}  ETag  "Weak ETag for the caller's contact set"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /contacts [get]
func (h *Handlers) ListContacts(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if etag, err := h.contacts.Fingerprint(ctx, uid); err == nil && notModified(c, etag) {
		return
	}

	items, err := h.contacts.List(ctx, uid, domain.ContactStatus(c.Query("status")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// UpcomingBirthdays godoc
// @ID          upcomingBirthdays
// @Summary     Upcoming birthdays of accepted contacts
// @Tags        Contacts
// @Produce     json
// @Security    BearerAuth
// @Param       days    query     int   false  "Window in days"  minimum(0) maximum(366) default(30)
// @Param       notify  query     bool  false  "Also emit birthday notifications"
// @Success     200     {object}  handlers.Envelope{data=[]services.BirthdayView}
// @Failure     400     {object}  handlers.ErrorResponse
// @Router      /contacts/birthdays [get]
func (h *Handlers) UpcomingBirthdays(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	days := utils.AtoiDefault(c.Query("days"), defaultBirthdayWindow)
	items, err := h.contacts.UpcomingBirthdays(c.Request.Context(), uid, days, sysutil.IsTruthy(c.Query("notify")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// SendContactRequest godoc
// @ID          sendContactRequest
// @Summary     Send a contact request
// @Tags        Contacts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header    string                   false  "Replay protection"
// @Param       body             body      handlers.ContactRequest  true   "Target user"
// @Success     201  {object}  handlers.Envelope{data=services.ContactView}
// @Failure     400  {object}  handlers.ErrorResponse  "Self request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Failure     409  {object}  handlers.ErrorResponse  "Relationship exists"
// @Router      /contacts/request [post]
func (h *Handlers) SendContactRequest(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.contacts.SendRequest(c.Request.Context(), uid, req.ContactID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusCreated, "contact request sent", v)
}

// AcceptContact godoc
// @ID          acceptContact
// @Summary     Accept a pending request
// @Tags        Contacts
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Contact row ID"
// @Success     200  {object}  handlers.Envelope{data=services.ContactView}
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /contacts/{id}/accept [put]
func (h *Handlers) AcceptContact(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	v, err := h.contacts.Accept(c.Request.Context(), uid, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "contact request accepted", v)
}

// RejectContact godoc
// @ID          rejectContact
// @Summary     Reject a pending request
// @Tags        Contacts
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Contact row ID"
// @Success     200  {object}  handlers.Envelope
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /contacts/{id}/reject [put]
func (h *Handlers) RejectContact(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if _, err := h.contacts.Reject(c.Request.Context(), uid, id); err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "contact request rejected", nil)
}

// RespondContact godoc
// @ID          respondContact
// @Summary     Accept or reject a pending request
// @Tags        Contacts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                      true  "Contact row ID"
// @Param       body  body      handlers.RespondRequest  true  "accepted or rejected"
// @Success     200   {object}  handlers.Envelope{data=services.ContactView}
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /contacts/{id}/respond [put]
func (h *Handlers) RespondContact(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.contacts.Respond(c.Request.Context(), uid, id, req.Status)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// RemoveContact godoc
// @ID          removeContact
// @Summary     Remove a contact
// @Description Either party may remove a pending or accepted relationship. Reservations between the two users are cancelled.
// @Tags        Contacts
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Contact row ID"
// @Success     200  {object}  handlers.Envelope
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /contacts/{id} [delete]
func (h *Handlers) RemoveContact(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.contacts.Remove(c.Request.Context(), uid, id); err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "contact removed", nil)
}

// BlockContact godoc
// @ID          blockContact
// @Summary     Block a contact
// @Tags        Contacts
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Contact row ID"
// @Success     200  {object}  handlers.Envelope
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /contacts/{id}/block [delete]
func (h *Handlers) BlockContact(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if _, err := h.contacts.Block(c.Request.Context(), uid, id); err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "contact blocked", nil)
}

// UnblockContact godoc
// @ID          unblockContact
// @Summary     Lift a block
// @Description Only the user who blocked may unblock; the relationship row is deleted.
// @Tags        Contacts
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Contact row ID"
// @Success     200  {object}  handlers.Envelope
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /contacts/{id}/unblock [put]
func (h *Handlers) UnblockContact(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.contacts.Unblock(c.Request.Context(), uid, id); err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "contact unblocked", nil)
}
