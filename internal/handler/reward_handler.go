package handler

import (
	"net/http"

	"Lee_Tribe/internal/service"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	svc *service.RewardService
}

func NewRewardHandler(svc *service.RewardService) *RewardHandler {
	return &RewardHandler{svc: svc}
}

// Get 账本惰性创建，从没拿过奖励的账号返回404
func (h *RewardHandler) Get(c *gin.Context) {
	account := c.Param("account")

	rw, err := h.svc.GetRewards(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}
	if rw == nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "no rewards yet"})
		return
	}
	c.JSON(http.StatusOK, rw)
}
