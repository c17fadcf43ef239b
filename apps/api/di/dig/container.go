package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/masomo-parents/apps/api/echo"
	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
	emailsvc "github.com/trezcool/masomo-parents/services/email"
	logsvc "github.com/trezcool/masomo-parents/services/logger"
	"github.com/trezcool/masomo-parents/services/schoolapi"
	"github.com/trezcool/masomo-parents/storage/session"
)

type SessionLoggerParam struct {
	dig.In
	Logger core.Logger `name:"sessionLogger"`
}

// SessionStoreParam is the session store with the func releasing it.
type SessionStoreParam struct {
	dig.In
	Store  parent.SessionStore
	Close  func() error `name:"closeSessions"`
	Logger core.Logger  `name:"sessionLogger"`
}

type sessionStoreResult struct {
	dig.Out
	Store parent.SessionStore
	Close func() error `name:"closeSessions"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newSessionLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "SESSION : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newSessionStore(conf *core.Config, loggerParam SessionLoggerParam) sessionStoreResult {
	store, closeFn, err := session.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up session store: %v", err), err)
	}
	return sessionStoreResult{Store: store, Close: closeFn}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newSchoolAPI(conf *core.Config, logger core.Logger) (parent.APIProvider, error) {
	return schoolapi.NewClient(conf.SchoolAPI, logger)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	provider parent.APIProvider,
	sessions parent.SessionStore,
	mailSvc core.EmailService,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		APIProvider: provider,
		Sessions:    sessions,
		EmailSvc:    mailSvc,
		Validate:    validate,
		Translator:  translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newSessionLogger, dig.Name("sessionLogger")))
	must(c.Provide(newSessionStore))
	must(c.Provide(newEmailService))
	must(c.Provide(newSchoolAPI))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
