package http

import (
	"net/http"
	"strconv"

	"bankdash/internal/domain/notification"
)

type NotificationHandler struct {
	notifications *notification.Service
}

func NewNotificationHandler(notifications *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type RegisterDeviceRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

type NotificationListResponse struct {
	Notifications []*notification.Notification `json:"notifications"`
	Pagination    PaginationResponse           `json:"pagination"`
}

type PaginationResponse struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// HandleRegisterDevice handles POST /api/notifications/devices.
func (h *NotificationHandler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req RegisterDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	dev, err := h.notifications.RegisterDevice(r.Context(), notification.DeviceRegistration{
		UserID:   userID,
		Token:    req.Token,
		Platform: req.DeviceType,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dev)
}

// HandleGetPreferences handles GET /api/notifications/preferences.
func (h *NotificationHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	prefs, err := h.notifications.GetPreferences(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// HandleUpdatePreferences handles PATCH /api/notifications/preferences.
func (h *NotificationHandler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req notification.PreferenceUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	prefs, err := h.notifications.UpdatePreferences(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// HandleList handles GET /api/notifications?page=&per_page=.
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	page, perPage = notification.ClampPage(page, perPage)

	items, total, err := h.notifications.ListNotifications(r.Context(), userID, page, perPage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*notification.Notification{}
	}

	writeJSON(w, http.StatusOK, NotificationListResponse{
		Notifications: items,
		Pagination: PaginationResponse{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   (total + perPage - 1) / perPage,
		},
	})
}
