package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/skillfolio/apps/api/echo"
	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/forum"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/goal"
	"github.com/trezcool/skillfolio/core/notification"
	"github.com/trezcool/skillfolio/core/profile"
	"github.com/trezcool/skillfolio/core/stats"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/services/authz"
	emailsvc "github.com/trezcool/skillfolio/services/email"
	"github.com/trezcool/skillfolio/services/events"
	logsvc "github.com/trezcool/skillfolio/services/logger"
	"github.com/trezcool/skillfolio/services/metrics"
	"github.com/trezcool/skillfolio/services/notify"
	"github.com/trezcool/skillfolio/storage/database"
	boiledrepos "github.com/trezcool/skillfolio/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/skillfolio/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	logsvc.InitRollbar(conf)
	return logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stdout, conf, "api"))
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stdout, conf, "db"))
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func(ctx context.Context) (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(ctx, db.DB, loggerParam.Logger, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp(context.Background())
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newBus(conf *core.Config) (*events.Bus, core.EventBus, error) {
	logger := logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stdout, conf, "events"))
	bus, err := events.NewBus(events.DefaultBusConfig(), logger)
	if err != nil {
		return nil, nil, err
	}
	return bus, bus, nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// newRelyingParty returns nil when no identity provider is configured.
func newRelyingParty(conf *core.Config, logger core.Logger) rp.RelyingParty {
	if !conf.OIDC.Enabled() {
		return nil
	}
	party, err := echoapi.NewRelyingParty(context.Background(), conf)
	if err != nil {
		logger.Error(fmt.Sprintf("oidc login disabled: %v", err), err)
		return nil
	}
	return party
}

func newGamificationService(repo gamification.Repository, bus core.EventBus, logger core.Logger) gamification.Service {
	svc := gamification.NewService(repo, bus, logger)
	svc.Subscribe(bus)
	return svc
}

func newNotificationService(
	repo notification.Repository,
	hub *notify.Hub,
	users user.Repository,
	mailSvc core.EmailService,
	bus core.EventBus,
	logger core.Logger,
) notification.Service {
	svc := notification.NewService(repo, hub, users, mailSvc, logger)
	svc.Subscribe(bus)
	return svc
}

func newMetrics(bus core.EventBus) *metrics.Metrics {
	m := metrics.New()
	m.Subscribe(bus)
	return m
}

type serverParams struct {
	dig.In

	Conf         *core.Config
	Logger       core.Logger
	Validate     *validator.Validate
	Translator   ut.Translator
	Enforcer     *authz.Enforcer
	Metrics      *metrics.Metrics
	Hub          *notify.Hub
	RelyingParty rp.RelyingParty

	UserSvc         user.Service
	ProfileSvc      profile.Service
	CourseSvc       course.Service
	GoalSvc         goal.Service
	GamificationSvc gamification.Service
	ForumSvc        forum.Service
	NotificationSvc notification.Service
	StatsSvc        stats.Service
}

func newServer(p serverParams) *echoapi.Server {
	opts := &echoapi.Options{
		Logger:       p.Logger,
		Validate:     p.Validate,
		Translator:   p.Translator,
		Enforcer:     p.Enforcer,
		Metrics:      p.Metrics,
		Hub:          p.Hub,
		RelyingParty: p.RelyingParty,

		UserSvc:         p.UserSvc,
		ProfileSvc:      p.ProfileSvc,
		CourseSvc:       p.CourseSvc,
		GoalSvc:         p.GoalSvc,
		GamificationSvc: p.GamificationSvc,
		ForumSvc:        p.ForumSvc,
		NotificationSvc: p.NotificationSvc,
		StatsSvc:        p.StatsSvc,
	}
	return echoapi.NewServer(opts.ApplyConfig(p.Conf))
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newBus))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(authz.NewEnforcer))
	must(c.Provide(notify.NewHub))
	must(c.Provide(newMetrics))
	must(c.Provide(newRelyingParty))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewProfileRepository))
	must(c.Provide(sqlxrepos.NewCourseRepository))
	must(c.Provide(sqlxrepos.NewGoalRepository))
	must(c.Provide(sqlxrepos.NewGamificationRepository))
	must(c.Provide(sqlxrepos.NewForumRepository))
	must(c.Provide(sqlxrepos.NewNotificationRepository))
	must(c.Provide(func(db *sqlx.DB) stats.Repository { return boiledrepos.NewStatsRepository(db) }))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(profile.NewService))
	must(c.Provide(func(repo course.Repository, bus core.EventBus, logger core.Logger) course.Service {
		return course.NewService(repo, bus, logger)
	}))
	must(c.Provide(func(repo goal.Repository, bus core.EventBus, logger core.Logger) goal.Service {
		return goal.NewService(repo, bus, logger)
	}))
	must(c.Provide(func(repo forum.Repository, bus core.EventBus, logger core.Logger) forum.Service {
		return forum.NewService(repo, bus, logger)
	}))
	must(c.Provide(newGamificationService))
	must(c.Provide(newNotificationService))
	must(c.Provide(stats.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
