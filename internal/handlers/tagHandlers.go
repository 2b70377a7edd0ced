package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"tagly/internal/models"
	"tagly/internal/services"
	"tagly/internal/utils"
)

type TagHandler struct {
	tagService         services.TagService
	associationService services.AssociationService
}

func NewTagHandler(tagService services.TagService, associationService services.AssociationService) *TagHandler {
	return &TagHandler{tagService: tagService, associationService: associationService}
}

func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var payload models.TagCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid JSON input for CreateTag")
		utils.SendJSONError(w, "Invalid JSON input: "+err.Error(), http.StatusBadRequest)
		return
	}

	tag, err := h.tagService.CreateTag(r.Context(), payload)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, services.ErrDuplicateTagName) {
			statusCode = http.StatusConflict
		} else if errors.Is(err, services.ErrMissingFields) {
			statusCode = http.StatusBadRequest
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, tag)
}

func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	page, pageSize := utils.GetPagination(r)

	result, err := h.tagService.ListTags(r.Context(), page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("Error listing tags")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *TagHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	tagID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	tag, err := h.tagService.GetTag(r.Context(), tagID)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tag == nil {
		utils.SendJSONError(w, "Tag not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, tag)
}

func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	tagID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var payload models.TagUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid JSON payload for UpdateTag")
		utils.SendJSONError(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	tag, err := h.tagService.UpdateTag(r.Context(), tagID, payload)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, services.ErrNoFieldsToUpdate) {
			statusCode = http.StatusBadRequest
		} else if errors.Is(err, services.ErrDuplicateTagName) {
			statusCode = http.StatusConflict
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}
	if tag == nil {
		utils.SendJSONError(w, "Tag not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, tag)
}

func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tagID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	tag, err := h.tagService.DeleteTag(r.Context(), tagID)
	if err != nil {
		log.Error().Err(err).Str("tag_id", tagID.Hex()).Msg("Error deleting tag")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tag == nil {
		utils.SendJSONError(w, "Tag not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, tag)
}

func (h *TagHandler) SearchTags(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, pageSize := utils.GetPagination(r)

	result, err := h.tagService.SearchTags(r.Context(), query, page, pageSize)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Error searching tags")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *TagHandler) PopularTags(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	ranked, err := h.associationService.PopularTags(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Error computing popular tags")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ranked)
}
