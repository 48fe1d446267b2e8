// Wish HTTP handlers.
//
//   - GET    /wishes               (own list, ETag support)
//   - POST   /wishes               (create)
//   - PUT    /wishes/{id}          (update, may move to another slot)
//   - DELETE /wishes/{id}          (delete, positions are compacted)
//   - GET    /wishes/reserved      (wishes the caller reserved)
//   - POST   /wishes/{id}/reserve  (reserve a contact's wish)
//   - DELETE /wishes/{id}/reserve  (cancel own reservation)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/services"
)

// ListWishes godoc
// @ID          listWishes
// @Summary     Own wish list ordered by position
// @Tags        Wishes
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.Envelope{data=[]domain.Wish}
// @Header      200  {string}  ETag  "Weak ETag for the list"
// @Success     304  {string}  string  "Not Modified"
// @Router      /wishes [get]
func (h *Handlers) ListWishes(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	ctx := c.Request.Context()
	if etag, err := h.wishes.Fingerprint(ctx, uid); err == nil && notModified(c, etag) {
		return
	}
	items, err := h.wishes.ListOwn(ctx, uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// CreateWish godoc
// @ID          createWish
// @Summary     Add a wish
// @Description Takes the requested position, or the lowest free one. At most ten wishes per user.
// @Tags        Wishes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string              false  "Replay protection"
// @Param       body             body    services.WishInput  true   "Wish"
// @Success     201  {object}  handlers.Envelope{data=domain.Wish}
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "List is full"
// @Router      /wishes [post]
func (h *Handlers) CreateWish(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	var req services.WishInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	w, err := h.wishes.Create(c.Request.Context(), uid, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, w)
}

// UpdateWish godoc
// @ID          updateWish
// @Summary     Update a wish
// @Tags        Wishes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                 true  "Wish ID"
// @Param       body  body      services.WishPatch  true  "Fields to change"
// @Success     200   {object}  handlers.Envelope{data=domain.Wish}
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /wishes/{id} [put]
func (h *Handlers) UpdateWish(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var patch services.WishPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err)
		return
	}
	w, err := h.wishes.Update(c.Request.Context(), uid, id, patch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}

// DeleteWish godoc
// @ID          deleteWish
// @Summary     Delete a wish
// @Tags        Wishes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Wish ID"
// @Success     200  {object}  handlers.Envelope
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /wishes/{id} [delete]
func (h *Handlers) DeleteWish(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.wishes.Delete(c.Request.Context(), uid, id); err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "wish deleted", nil)
}

// ListReserved godoc
// @ID          listReserved
// @Summary     Wishes reserved by the caller
// @Tags        Wishes
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.Envelope{data=[]domain.Wish}
// @Router      /wishes/reserved [get]
func (h *Handlers) ListReserved(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	items, err := h.wishes.ListReservedBy(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// ReserveWish godoc
// @ID          reserveWish
// @Summary     Reserve a contact's wish
// @Tags        Wishes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Wish ID"
// @Success     200  {object}  handlers.Envelope{data=domain.Wish}
// @Failure     400  {object}  handlers.ErrorResponse  "Own wish or already reserved"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a contact"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /wishes/{id}/reserve [post]
func (h *Handlers) ReserveWish(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	w, err := h.wishes.Reserve(c.Request.Context(), uid, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "wish reserved", w)
}

// CancelReservation godoc
// @ID          cancelReservation
// @Summary     Cancel own reservation
// @Tags        Wishes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Wish ID"
// @Success     200  {object}  handlers.Envelope{data=domain.Wish}
// @Failure     403  {object}  handlers.ErrorResponse  "Not the reserver"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /wishes/{id}/reserve [delete]
func (h *Handlers) CancelReservation(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	w, err := h.wishes.CancelReservation(c.Request.Context(), uid, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "reservation cancelled", w)
}
