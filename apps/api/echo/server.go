package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/zitadel/oidc/v3/pkg/client/rp"

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
	"github.com/trezcool/skillfolio/services/metrics"
	"github.com/trezcool/skillfolio/services/notify"
)

type Options struct {
	Address                 string
	Debug                   bool
	TestMode                bool
	DisableReqLogs          bool
	FrontendBaseURL         string
	PasswordResetRatePerMin int

	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Enforcer   *authz.Enforcer
	Metrics    *metrics.Metrics // optional
	Hub        *notify.Hub      // optional, enables /v1/ws
	// RelyingParty enables the third party login endpoints when set.
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

// ApplyConfig fills the server settings of Options from conf.
func (opts *Options) ApplyConfig(conf *core.Config) *Options {
	opts.Address = conf.Server.Address
	opts.Debug = conf.Debug
	opts.TestMode = conf.TestMode
	opts.DisableReqLogs = conf.Server.DisableRequestLogs
	opts.FrontendBaseURL = conf.FrontendBaseURL
	opts.PasswordResetRatePerMin = conf.Server.PasswordResetRatePerMin
	return opts
}

type Server struct {
	opts     *Options
	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(opts *Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.opts.Metrics != nil {
		s.app.Use(metricsMiddleware(s.opts.Metrics))
		s.app.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.SignalShutdown)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts)
	if s.opts.RelyingParty != nil {
		registerOIDCAPI(v1, s.opts)
	}
	registerProfileAPI(v1, jwt, s.opts)
	registerCourseAPI(v1, jwt, s.opts)
	registerGoalAPI(v1, jwt, s.opts)
	registerGamificationAPI(v1, jwt, s.opts)
	registerForumAPI(v1, jwt, s.opts)
	registerNotificationAPI(v1, jwt, s.opts)

	admin := v1.Group("/admin", jwt, activeUserMiddleware(s.opts.UserSvc))
	registerCatalogAPI(admin, s.opts)
	registerBadgeAdminAPI(admin, s.opts)
	registerStatsAPI(admin, s.opts)
}

// Start blocks while serving. Listen errors are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the process to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Skillfolio API!")
}
