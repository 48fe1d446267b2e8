// Notification HTTP handlers.
//
//   - GET    /notifications               (paginated list)
//   - GET    /notifications/unread-count  (cached counter)
//   - PUT    /notifications/{id}/read     (mark one read)
//   - PUT    /notifications/read-all      (mark all read)
//   - DELETE /notifications/{id}          (delete one)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/sysutil"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/utils"
)

// UnreadCountResponse carries the unread counter.
type UnreadCountResponse struct {
	Unread int64 `json:"unread" example:"3"`
}

// MarkAllReadResponse reports how many notifications changed.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated" example:"5"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List notifications (paginated, newest first)
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Param       page    query     int   false  "Page number"     minimum(1) default(1)
// @Param       limit   query     int   false  "Items per page"  minimum(1) maximum(50) default(20)
// @Param       unread  query     bool  false  "Only unread"
// @Success     200     {object}  handlers.Envelope{data=services.NotificationPage}
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	page := utils.AtoiDefault(c.Query("page"), 1)
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	res, err := h.notifs.List(c.Request.Context(), uid, page, limit, sysutil.IsTruthy(c.Query("unread")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// UnreadCount godoc
// @ID          unreadCount
// @Summary     Number of unread notifications
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.Envelope{data=handlers.UnreadCountResponse}
// @Router      /notifications/unread-count [get]
func (h *Handlers) UnreadCount(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	n, err := h.notifs.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, UnreadCountResponse{Unread: n})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark a notification read
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Notification ID"
// @Success     200  {object}  handlers.Envelope{data=domain.Notification}
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /notifications/{id}/read [put]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	n, err := h.notifs.MarkRead(c.Request.Context(), uid, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, n)
}

// MarkAllNotificationsRead godoc
// @ID          markAllNotificationsRead
// @Summary     Mark every notification read
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.Envelope{data=handlers.MarkAllReadResponse}
// @Router      /notifications/read-all [put]
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	n, err := h.notifs.MarkAllRead(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, MarkAllReadResponse{Updated: n})
}

// DeleteNotification godoc
// @ID          deleteNotification
// @Summary     Delete a notification
// @Tags        Notifications
// @Security    BearerAuth
// @Param       id   path  int  true  "Notification ID"
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /notifications/{id} [delete]
func (h *Handlers) DeleteNotification(c *gin.Context) {
	uid, found := callerID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.notifs.Delete(c.Request.Context(), uid, id); err != nil {
		writeServiceError(c, err)
		return
	}
	noContent(c)
}
