package router

import (
	"Lee_Tribe/internal/handler"
	"Lee_Tribe/internal/middleware"
	"Lee_Tribe/internal/repository/redis"
	"Lee_Tribe/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func InitRouter(db *gorm.DB, cache *redis.MemberCacheRepository) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"msg": "ok"})
	})

	membershipSvc := service.NewMembershipService(db, cache)
	profileSvc := service.NewProfileService(db)
	groupSvc := service.NewGroupService(db, cache)
	rewardSvc := service.NewRewardService(db)

	profile := handler.NewProfileHandler(profileSvc)
	group := handler.NewGroupHandler(groupSvc, membershipSvc)
	membership := handler.NewMembershipHandler(membershipSvc)
	reward := handler.NewRewardHandler(rewardSvc)

	// 个人资料相关接口
	profileGroup := r.Group("/api/profile")
	profileGroup.Use(middleware.AuthMiddleware())
	{
		profileGroup.POST("/register", profile.Register)
		profileGroup.PUT("/edit", profile.Edit)
		profileGroup.POST("/batch", profile.Batch)
		profileGroup.GET("/:account", profile.Get)
		profileGroup.GET("/:account/completion", profile.Completion)
	}

	// 群组相关接口
	groupGroup := r.Group("/api/group")
	groupGroup.Use(middleware.AuthMiddleware())
	{
		groupGroup.POST("/create", group.Create)
		groupGroup.GET("/list", group.List)
		groupGroup.POST("/batch", group.Batch)
		groupGroup.GET("/name/:name", group.GetByName)
		groupGroup.GET("/id/:id", group.Get)
		groupGroup.PUT("/:id", group.Edit)
		groupGroup.PUT("/:id/owner", group.SetOwner)
		groupGroup.DELETE("/:id", group.Delete)
	}

	// 成员关系相关接口
	membershipGroup := r.Group("/api/membership")
	membershipGroup.Use(middleware.AuthMiddleware())
	{
		membershipGroup.POST("/join/:id", membership.Join)
		membershipGroup.POST("/leave/:id", membership.Leave)
		membershipGroup.GET("/groups/:account", membership.UserGroups)
		membershipGroup.GET("/members/:id", membership.Members)
		membershipGroup.GET("/count/:id", membership.Count)
		membershipGroup.GET("/check", membership.Check)
		membershipGroup.GET("/role", membership.Role)
	}

	// 积分相关接口
	rewardGroup := r.Group("/api/reward")
	rewardGroup.Use(middleware.AuthMiddleware())
	{
		rewardGroup.GET("/:account", reward.Get)
	}

	return r
}
