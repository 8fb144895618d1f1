package wire

import (
	"EdVix/internal/api"
	"EdVix/internal/api/config"
	"EdVix/internal/api/handler"
	"EdVix/internal/job"
	"EdVix/internal/pkg/chat"
	"EdVix/internal/pkg/cron"
	"EdVix/internal/pkg/kafka"
	"EdVix/internal/pkg/kv"
	mongoRepo "EdVix/internal/pkg/mongo"
	"EdVix/internal/pkg/otp"
	"EdVix/internal/pkg/redis"
	"EdVix/internal/pkg/util"
	"EdVix/internal/repository"
	"EdVix/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const kvPrefix = "edvix:"

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager
	ChatService  service.ChatService
	Notifier     service.Notifier
}

// Close 落盘会话快照并关闭通知通道
func (a *ApplicationContainer) Close(ctx context.Context) {
	a.ChatService.Close(ctx)
	if closer, ok := a.Notifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.ErrorContext(ctx, "close notifier failed", "err", err)
		}
	}
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, producer sarama.AsyncProducer, cfg *config.Config) (*ApplicationContainer, error) {
	// repository
	userRepo := repository.NewUserRepo(db)
	sysBoxRepo := mongoRepo.NewSysBoxRepo(mongoDB)
	var directory repository.UserDirectory
	if cfg.User.Directory == "kv" {
		directory = repository.NewKVUserDirectory(kv.NewRedisStore(redis.Rdb, kvPrefix))
	}

	// notifier
	var notifier service.Notifier
	if producer != nil {
		notifier = service.NewKafkaNotifier(producer, cfg.Kafka.NoticeTopic)
	} else {
		notifier = service.NewLogNotifier()
	}

	// service
	codeService := service.NewCodeService(map[otp.Kind]service.CodeSender{
		otp.KindSMS:   util.NewSMSSender(cfg.SMS),
		otp.KindEmail: util.NewMailSender(cfg.Mailgun),
	}, time.Duration(cfg.OTP.CodeTTLMinutes)*time.Minute, devTestCode(cfg.OTP))
	verificationService := service.NewVerificationService(newFlowFactory(cfg.OTP, codeService), userRepo, notifier)
	chatService := service.NewChatService(userRepo, newChatPersister(cfg.Chat, mongoDB), notifier)
	userService := service.NewUserService(userRepo, directory, codeService, kv.NewRedisStore(redis.Rdb, kvPrefix), notifier, nil)
	sysBoxService := service.NewSysBoxService(sysBoxRepo, userRepo)

	handlers := &api.HandlersGroup{
		AuthHandler:   handler.NewAuthHandler(verificationService),
		UserHandler:   handler.NewUserHandler(userService),
		ChatHandler:   handler.NewChatHandler(chatService),
		SysBoxHandler: handler.NewSysBoxHandler(sysBoxService),
	}

	router := api.SetupRouter(handlers, cfg.Server.AllowedOrigins...)

	// cron
	sweepJob := job.NewSessionSweepJob(
		job.SessionSweeper{
			Name:    "otp",
			Target:  verificationService,
			IdleTTL: time.Duration(cfg.OTP.SessionTTLMinutes) * time.Minute,
		},
		job.SessionSweeper{
			Name:    "chat",
			Target:  chatService,
			IdleTTL: time.Duration(cfg.Chat.SessionTTLMinutes) * time.Minute,
		},
	)
	cronMgr := cron.NewCronManager(sweepJob)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, sysBoxRepo)
	if err != nil {
		return nil, err
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		CronMgr:      cronMgr,
		KafkaManager: kafkaMgr,
		ChatService:  chatService,
		Notifier:     notifier,
	}, nil
}

// newFlowFactory provider=static 时所有会话共享固定测试验证码
func newFlowFactory(cfg config.OTPConfig, codes service.CodeService) service.FlowFactory {
	var provider otp.Provider
	switch cfg.Provider {
	case "static":
		provider = otp.NewStaticProvider(cfg.TestCode, time.Duration(cfg.SimulatedLatencyMs)*time.Millisecond)
	default:
		provider = service.NewCodeProvider(codes, otp.KindSMS)
	}

	opts := []otp.Option{otp.WithKind(otp.KindSMS)}
	if cfg.CooldownSeconds > 0 {
		opts = append(opts, otp.WithCooldown(time.Duration(cfg.CooldownSeconds)*time.Second))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, otp.WithMaxAttempts(cfg.MaxAttempts))
	}
	return func() *otp.Flow {
		return otp.NewFlow(provider, opts...)
	}
}

func newChatPersister(cfg config.ChatConfig, mongoDB *mongo.Database) chat.Persister {
	switch cfg.Persistence {
	case "mongo":
		return chat.NewMongoPersister(mongoDB)
	case "memory":
		return chat.NewKVPersister(kv.NewMemoryStore())
	default:
		return chat.NewKVPersister(kv.NewRedisStore(redis.Rdb, kvPrefix))
	}
}

func devTestCode(cfg config.OTPConfig) string {
	if cfg.Provider == "static" {
		return cfg.TestCode
	}
	return ""
}
