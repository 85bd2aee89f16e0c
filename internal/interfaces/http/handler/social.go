package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/social"
)

// SocialHandler serves account linking and scheduled posts
type SocialHandler struct {
	BaseHandler
	socialService *social.Service
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(socialService *social.Service) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

// Connect godoc
// @Summary      Start linking an account
// @Description  Returns the Facebook login dialog URL for the platform
// @Tags         social
// @Produce      json
// @Param        platform path string true "facebook or instagram"
// @Success      200 {object} dto.Response{data=social.ConnectResponse}
// @Security     BearerAuth
// @Router       /social/connect/{platform} [get]
func (h *SocialHandler) Connect(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	result, err := h.socialService.ConnectURL(c.Request.Context(), userID, c.Param("platform"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Callback completes linking. Facebook redirects here without our token, so
// the user is recovered from the state.
func (h *SocialHandler) Callback(c *gin.Context) {
	if reason := c.Query("error_description"); reason != "" || c.Query("error") != "" {
		if reason == "" {
			reason = c.Query("error")
		}
		h.BadRequest(c, "Authorization was declined: "+reason)
		return
	}
	account, err := h.socialService.HandleCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// ListAccounts returns the linked accounts
func (h *SocialHandler) ListAccounts(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	accounts, err := h.socialService.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// Disconnect unlinks an account
func (h *SocialHandler) Disconnect(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.socialService.Disconnect(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SchedulePost schedules a post on the chosen platforms
func (h *SocialHandler) SchedulePost(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req social.SchedulePostRequest
	if !h.BindJSON(c, &req) {
		return
	}
	post, err := h.socialService.SchedulePost(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, post)
}

// ListPosts pages through the user's posts
func (h *SocialHandler) ListPosts(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var filter social.PostListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.socialService.ListPosts(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetPost returns a post with its per-platform results
func (h *SocialHandler) GetPost(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	post, err := h.socialService.GetPost(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, post)
}

// CancelPost cancels a scheduled post and its jobs
func (h *SocialHandler) CancelPost(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	post, err := h.socialService.CancelPost(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, post)
}

// Reschedule moves a scheduled post to a new time
func (h *SocialHandler) Reschedule(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req social.RescheduleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	post, err := h.socialService.Reschedule(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, post)
}

// PublishNow publishes a scheduled post immediately
func (h *SocialHandler) PublishNow(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	post, err := h.socialService.PublishNow(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, post)
}
