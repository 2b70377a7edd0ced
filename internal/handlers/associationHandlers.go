package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"tagly/internal/services"
	"tagly/internal/utils"
)

// AssociationHandler serves the user<->tag relationship endpoints.
type AssociationHandler struct {
	service services.AssociationService
}

func NewAssociationHandler(service services.AssociationService) *AssociationHandler {
	return &AssociationHandler{service: service}
}

func (h *AssociationHandler) AttachTags(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var payload struct {
		TagIDs []string `json:"tagIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid JSON payload for AttachTags")
		utils.SendJSONError(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(payload.TagIDs) == 0 {
		utils.SendJSONError(w, "tagIds array is required", http.StatusBadRequest)
		return
	}

	tagged, err := h.service.AttachTagsByID(r.Context(), userID, payload.TagIDs)
	if err != nil {
		h.respondAttachError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, tagged)
}

func (h *AssociationHandler) AttachTagsByName(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var payload struct {
		TagNames []string `json:"tagNames"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid JSON payload for AttachTagsByName")
		utils.SendJSONError(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(payload.TagNames) == 0 {
		utils.SendJSONError(w, "tagNames array is required", http.StatusBadRequest)
		return
	}

	tagged, err := h.service.AttachTagsByName(r.Context(), userID, payload.TagNames)
	if err != nil {
		h.respondAttachError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, tagged)
}

func (h *AssociationHandler) respondAttachError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	if errors.Is(err, services.ErrInvalidTagID) {
		statusCode = http.StatusBadRequest
	} else if errors.Is(err, services.ErrTagNotFound) ||
		errors.Is(err, services.ErrUserNotFound) {
		statusCode = http.StatusNotFound
	} else if errors.Is(err, services.ErrDuplicateTagName) {
		statusCode = http.StatusConflict
	}
	utils.SendJSONError(w, err.Error(), statusCode)
}

func (h *AssociationHandler) DetachTag(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	tagID, err := utils.GetObjectIDFromVars(w, r, "tagId")
	if err != nil {
		return
	}

	tagged, err := h.service.DetachTag(r.Context(), userID, tagID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, services.ErrUserNotFound) {
			statusCode = http.StatusNotFound
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, tagged)
}

func (h *AssociationHandler) ListUserTags(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	tags, err := h.service.ListUserTags(r.Context(), userID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, services.ErrUserNotFound) {
			statusCode = http.StatusNotFound
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, tags)
}

func (h *AssociationHandler) FindUsersByTag(w http.ResponseWriter, r *http.Request) {
	tagID, err := utils.GetObjectIDFromVars(w, r, "tagId")
	if err != nil {
		return
	}
	page, pageSize := utils.GetPagination(r)

	result, err := h.service.FindUsersByTag(r.Context(), tagID, page, pageSize)
	if err != nil {
		log.Error().Err(err).Str("tag_id", tagID.Hex()).Msg("Error finding users by tag")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *AssociationHandler) FindUsersByTagName(w http.ResponseWriter, r *http.Request) {
	tagName := mux.Vars(r)["name"]
	if tagName == "" {
		utils.SendJSONError(w, "Missing tag name", http.StatusBadRequest)
		return
	}
	page, pageSize := utils.GetPagination(r)

	result, err := h.service.FindUsersByTagName(r.Context(), tagName, page, pageSize)
	if err != nil {
		log.Error().Err(err).Str("tag_name", tagName).Msg("Error finding users by tag name")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *AssociationHandler) FindUsersByAllTags(w http.ResponseWriter, r *http.Request) {
	tagIDs, err := utils.ParseObjectIDs(r.URL.Query().Get("tags"))
	if err != nil {
		utils.SendJSONError(w, "Invalid tag id list", http.StatusBadRequest)
		return
	}
	if len(tagIDs) == 0 {
		utils.SendJSONError(w, "At least one tag id is required", http.StatusBadRequest)
		return
	}
	page, pageSize := utils.GetPagination(r)

	result, err := h.service.FindUsersByAllTags(r.Context(), tagIDs, page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("Error finding users by tag set")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}
