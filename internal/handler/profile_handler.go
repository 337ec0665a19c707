package handler

import (
	"net/http"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	svc *service.ProfileService
}

type ProfileBatchReq struct {
	Accounts []string `json:"accounts" binding:"required"`
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Register(c *gin.Context) {
	caller := callerAccount(c)

	var req service.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	p, err := h.svc.Register(c.Request.Context(), caller, req)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	account := c.Param("account")

	p, err := h.svc.GetProfile(c.Request.Context(), account)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Batch 批量查询，缺失的账号直接跳过
func (h *ProfileHandler) Batch(c *gin.Context) {
	var req ProfileBatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	list, err := h.svc.GetProfiles(c.Request.Context(), req.Accounts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

// Edit 只能改自己的资料
func (h *ProfileHandler) Edit(c *gin.Context) {
	caller := callerAccount(c)

	var req model.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	p, err := h.svc.EditProfile(c.Request.Context(), caller, req)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Completion(c *gin.Context) {
	account := c.Param("account")

	percentage, err := h.svc.CompletionPercentage(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "percentage": percentage})
}
