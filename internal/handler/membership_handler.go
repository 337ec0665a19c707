package handler

import (
	"net/http"
	"strconv"

	"Lee_Tribe/internal/service"

	"github.com/gin-gonic/gin"
)

type MembershipHandler struct {
	svc *service.MembershipService
}

func NewMembershipHandler(svc *service.MembershipService) *MembershipHandler {
	return &MembershipHandler{svc: svc}
}

func (h *MembershipHandler) Join(c *gin.Context) {
	caller := callerAccount(c)
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	view, err := h.svc.JoinGroup(c.Request.Context(), caller, id)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *MembershipHandler) Leave(c *gin.Context) {
	caller := callerAccount(c)
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	if err := h.svc.LeaveGroup(c.Request.Context(), caller, id); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// UserGroups 账号加入的群组ID列表，账号不存在返回空列表
func (h *MembershipHandler) UserGroups(c *gin.Context) {
	account := c.Param("account")

	groups, err := h.svc.GetUserGroups(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "groups": groups})
}

func (h *MembershipHandler) Members(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	members, err := h.svc.GetGroupMembers(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"group_id": id, "members": members})
}

// Count 成员数走计数缓存，群组不存在按0处理
func (h *MembershipHandler) Count(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	cnt, err := h.svc.GetMemberCount(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"group_id": id, "members_count": cnt})
}

// Check 查询账号是否在群里
func (h *MembershipHandler) Check(c *gin.Context) {
	account := c.Query("account")
	groupID, err := strconv.ParseUint(c.Query("group_id"), 10, 32)
	if account == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	in, err := h.svc.IsUserInGroup(c.Request.Context(), account, uint32(groupID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "group_id": groupID, "in_group": in})
}

// Role 查询账号在群里的角色；不在群里 role 为空
func (h *MembershipHandler) Role(c *gin.Context) {
	account := c.Query("account")
	groupID, err := strconv.ParseUint(c.Query("group_id"), 10, 32)
	if account == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	role, in, err := h.svc.GetUserRoleInGroup(c.Request.Context(), account, uint32(groupID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "group_id": groupID, "in_group": in, "role": role})
}
