package wire

import (
	"SmartChat/internal/api"
	"SmartChat/internal/api/config"
	"SmartChat/internal/api/handler"
	"SmartChat/internal/job"
	"SmartChat/internal/pkg/cron"
	"SmartChat/internal/pkg/security"
	"SmartChat/internal/repository"
	"SmartChat/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	CronMgr *cron.Manager
}

func BuildApplication(cfg *config.Config, passphrase string) (*ApplicationContainer, error) {
	chatRepo, err := repository.NewChatRepo(cfg.Storage.Dir, passphrase)
	if err != nil {
		return nil, err
	}

	signer := security.NewTokenSigner(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	presenceService := service.NewPresenceService()
	chatService := service.NewChatService(chatRepo, presenceService)
	groupService := service.NewGroupService(chatRepo, presenceService)

	handlers := &api.HandlersGroup{
		WSHandler:   handler.NewWsHandler(presenceService, chatService, groupService, signer),
		ChatHandler: handler.NewChatHandler(presenceService, chatService, groupService, signer),
	}

	router := api.SetupRouter(handlers, signer)

	cronMgr := cron.NewCronManager(job.NewStatsJob(presenceService, groupService))

	return &ApplicationContainer{
		Router:  router,
		CronMgr: cronMgr,
	}, nil
}
