package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"tagly/internal/models"
	"tagly/internal/services"
	"tagly/internal/utils"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Error().Err(err).Msg("Invalid user data input for Register")
		utils.SendJSONError(w, "Invalid user data input: "+err.Error(), http.StatusBadRequest)
		return
	}

	registered, err := h.userService.RegisterUser(r.Context(), &user)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, services.ErrMissingFields) ||
			errors.Is(err, services.ErrWeakPassword) ||
			errors.Is(err, services.ErrInvalidEmail) {
			statusCode = http.StatusBadRequest
		} else if errors.Is(err, services.ErrDuplicateIdentity) {
			statusCode = http.StatusConflict
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, registered)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Login")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.Login(r.Context(), creds)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, services.ErrUserNotFound) {
			statusCode = http.StatusNotFound
		} else if errors.Is(err, services.ErrHiddenUser) {
			statusCode = http.StatusForbidden
		} else if errors.Is(err, services.ErrInvalidCredentials) {
			statusCode = http.StatusUnauthorized
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := utils.GetPagination(r)

	result, err := h.userService.ListUsers(r.Context(), page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("Error listing users")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if user == nil {
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var payload models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid JSON payload for UpdateUser")
		utils.SendJSONError(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), userID, payload)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, services.ErrNoFieldsToUpdate) {
			statusCode = http.StatusBadRequest
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}
	if user == nil {
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	user, err := h.userService.DeleteUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error deleting user")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if user == nil {
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (h *UserHandler) SetHidden(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var payload struct {
		IsHidden *bool `json:"is_hidden"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.IsHidden == nil {
		utils.SendJSONError(w, "is_hidden boolean is required", http.StatusBadRequest)
		return
	}

	user, err := h.userService.SetHidden(r.Context(), userID, *payload.IsHidden)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if user == nil {
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) CountUsers(w http.ResponseWriter, r *http.Request) {
	count, err := h.userService.CountVisible(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error counting users")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]int64{"count": count})
}
