package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/meeting"
	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/semester"
	"github.com/rcos-io/portal/core/smallgroup"
	"github.com/rcos-io/portal/core/statusupdate"
	"github.com/rcos-io/portal/core/user"
)

type (
	// AccountLinker runs the chat platform's OAuth2 account linking flow.
	AccountLinker interface {
		AuthCodeURL(state string) string
		ExchangeCode(ctx context.Context, code string) (core.ChatUser, error)
	}

	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc         *user.Service
		SemesterSvc     *semester.Service
		EnrollmentSvc   *enrollment.Service
		ProjectSvc      *project.Service
		MeetingSvc      *meeting.Service
		SmallGroupSvc   *smallgroup.Service
		StatusUpdateSvc *statusupdate.Service
		AccountLinker   AccountLinker

		Cache  core.Cache
		Logger core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts)
	registerSemesterAPI(v1, jwt, s.opts)
	registerEnrollmentAPI(v1, jwt, s.opts)
	registerProjectAPI(v1, jwt, s.opts)
	registerMeetingAPI(v1, jwt, s.opts)
	registerSmallGroupAPI(v1, jwt, s.opts)
	registerStatusUpdateAPI(v1, jwt, s.opts)
	registerDashboardAPI(v1, jwt, s.opts)
	registerDiscordAPI(v1, jwt, s.opts)
}

// signalShutdown triggers a graceful shutdown of the server.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Start(s.opts.Address) }()

	select {
	case err := <-errc:
		s.app.Logger.Fatal(err)
	case sig := <-s.shutdown:
		s.app.Logger.Infof("received %v: shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()
		if err := s.Stop(ctx); err != nil {
			s.app.Logger.Fatal(err)
		}
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the RCOS Portal API!")
}
