package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/store"
	"github.com/cordialsys/stakeboard/wizard"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

const DefaultAddr = "127.0.0.1:8080"

type Config struct {
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty" toml:"addr,omitempty"`
	// DataDog agent address (host:port); metrics are off when empty
	Statsd       string   `yaml:"statsd,omitempty" json:"statsd,omitempty" toml:"statsd,omitempty"`
	AllowOrigins []string `yaml:"allow_origins,omitempty" json:"allow_origins,omitempty" toml:"allow_origins,omitempty"`
}

// Server exposes the account, the guardians and the open wizards over HTTP.
type Server struct {
	cfg      Config
	chain    *sb.ChainConfig
	store    *store.Store
	sdClient statsd.ClientInterface
	now      func() time.Time
	log      *logrus.Entry

	// serializes opening wizards
	opening sync.Mutex
	// never held while closing a controller
	mu      sync.Mutex
	wizards map[string]*wizard.Controller
}

// New returns a server. sdClient may be nil.
func New(cfg Config, chain *sb.ChainConfig, st *store.Store, sdClient statsd.ClientInterface) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		cfg:      cfg,
		chain:    chain,
		store:    st,
		sdClient: sdClient,
		now:      time.Now,
		log:      logrus.WithField("service", "api"),
		wizards:  map[string]*wizard.Controller{},
	}
}

// NewStatsdClient connects to the agent configured in cfg, or returns nil if there is none.
func NewStatsdClient(cfg Config) (statsd.ClientInterface, error) {
	if cfg.Statsd == "" {
		return nil, nil
	}
	client, err := statsd.New(cfg.Statsd, statsd.WithNamespace("stakeboard."))
	if err != nil {
		return nil, fmt.Errorf("fail to connect to statsd at %s, err: %w", cfg.Statsd, err)
	}
	return client, nil
}

func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64K"))
	if s.sdClient != nil {
		e.Use(s.statsdMiddleware)
	}
	if len(s.cfg.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: s.cfg.AllowOrigins}))
	} else {
		e.Use(middleware.CORS())
	}

	e.GET("/ping", s.Ping)

	api := e.Group("/api")
	api.GET("/balances", s.GetBalances)
	api.GET("/guardians", s.GetGuardians)

	wizards := api.Group("/wizards")
	wizards.GET("", s.ListWizards)
	wizards.POST("", s.CreateWizard)
	wizards.GET("/:id", s.GetWizard)
	wizards.PUT("/:id/amount", s.SetWizardAmount)
	wizards.PUT("/:id/guardian", s.SetWizardGuardian)
	wizards.POST("/:id/submit", s.SubmitWizard)
	wizards.DELETE("/:id", s.CloseWizard)
	return e
}

// Start serves until ctx is done, then closes every open wizard.
func (s *Server) Start(ctx context.Context) error {
	e := s.Echo()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("could not shut down cleanly")
		}
	}()
	s.log.WithField("addr", s.cfg.Addr).Info("listening")
	err := e.Start(s.cfg.Addr)
	s.CloseAll()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) statsdMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		duration := time.Since(start)

		tags := []string{"path:" + c.Path()}
		_ = s.sdClient.Incr("http.requests", tags, 1)
		_ = s.sdClient.Timing("http.response_time", duration, tags, 1)
		_ = s.sdClient.Incr("http.status."+fmt.Sprint(c.Response().Status), append(tags, "method:"+c.Request().Method), 1)

		return err
	}
}

func (s *Server) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "stakeboard is running")
}

type errorView struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func (s *Server) GetBalances(c echo.Context) error {
	snap, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return fmt.Errorf("fail to read account, err: %w", err)
	}
	return c.JSON(http.StatusOK, NewBalancesView(snap, s.chain, s.now()))
}

func (s *Server) GetGuardians(c echo.Context) error {
	snap, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return fmt.Errorf("fail to read guardians, err: %w", err)
	}
	return c.JSON(http.StatusOK, NewGuardiansView(snap, s.chain))
}
