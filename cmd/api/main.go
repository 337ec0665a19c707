package main

import (
	"context"
	"log"
	"os"
	"strings"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/pkg"
	"Lee_Tribe/internal/repository/mysql"
	"Lee_Tribe/internal/repository/redis"
	"Lee_Tribe/internal/router"
	"Lee_Tribe/internal/service"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	dsn := getenv("TRIBE_MYSQL_DSN", "user:password@tcp(127.0.0.1:3306)/tribe?charset=utf8mb4&parseTime=True")
	if err := mysql.InitDB(dsn); err != nil {
		panic(err)
	}

	// 连接redis
	if err := redis.Init(getenv("TRIBE_REDIS_ADDR", "127.0.0.1:6379"), os.Getenv("TRIBE_REDIS_PASSWORD"), 0); err != nil {
		panic(err)
	}

	// 自动建表（开发阶段 OK）
	mysql.DB.AutoMigrate(
		&model.Profile{},
		&model.Group{},
		&model.GroupCounter{},
		&model.Reward{},
		&model.MembershipOutbox{},
	)

	// 不配broker就退回日志投递，事件留在outbox表里不会丢
	sender := service.LogSender
	if brokers := os.Getenv("TRIBE_KAFKA_BROKERS"); brokers != "" {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   getenv("TRIBE_KAFKA_TOPIC", "membership-events"),
		})
		if err != nil {
			log.Printf("kafka init err: %v, fallback to log sender", err)
		} else {
			defer producer.Close()
			sender = service.KafkaSender(producer)
		}
	}

	ctx := context.Background()

	// 后台任务：outbox投递 + 镜像对账
	relayer := service.NewOutboxRelayer(mysql.DB, sender)
	go relayer.Run(ctx)
	reconciler := service.NewMirrorReconciler(mysql.DB)
	go reconciler.Run(ctx)

	// Gin
	cache := redis.NewMemberCacheRepository()
	r := router.InitRouter(mysql.DB, cache)
	err := r.Run(getenv("TRIBE_HTTP_ADDR", ":8080"))
	if err != nil {
		return
	}
}
