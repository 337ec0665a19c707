package handler

import (
	"net/http"
	"strconv"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/service"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	svc        *service.GroupService
	membership *service.MembershipService
}

type GroupBatchReq struct {
	IDs []uint32 `json:"ids" binding:"required"`
}

type GroupOwnerReq struct {
	Account string `json:"account" binding:"required"`
}

func NewGroupHandler(svc *service.GroupService, membership *service.MembershipService) *GroupHandler {
	return &GroupHandler{svc: svc, membership: membership}
}

func parseGroupID(c *gin.Context) (uint32, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid group id"})
		return 0, false
	}
	return uint32(id), true
}

// Create 建群走协调层：群组、创建者镜像、事件在一个事务里落地
func (h *GroupHandler) Create(c *gin.Context) {
	caller := callerAccount(c)

	var req service.GroupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	view, err := h.membership.CreateGroup(c.Request.Context(), caller, req)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	view, err := h.svc.GetGroup(c.Request.Context(), id)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *GroupHandler) GetByName(c *gin.Context) {
	view, err := h.svc.GetGroupByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *GroupHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	list, err := h.svc.ListGroups(c.Request.Context(), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *GroupHandler) Batch(c *gin.Context) {
	var req GroupBatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	list, err := h.svc.GetGroupsByID(c.Request.Context(), req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *GroupHandler) Edit(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req model.GroupUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	view, err := h.svc.EditGroup(c.Request.Context(), id, req)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *GroupHandler) SetOwner(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req GroupOwnerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.SetGroupOwner(c.Request.Context(), id, req.Account); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteGroup(c.Request.Context(), id); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}
