package dig_container

import (
	"fmt"
	"log"
	"net/mail"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/ecclesia/apps/api/echo"
	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/org"
	"github.com/trezcool/ecclesia/core/trail"
	emailsvc "github.com/trezcool/ecclesia/services/email"
	logsvc "github.com/trezcool/ecclesia/services/logger"
	notifysvc "github.com/trezcool/ecclesia/services/notify"
	"github.com/trezcool/ecclesia/storage/database"
	sqlxrepos "github.com/trezcool/ecclesia/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// SetUpDB creates the database if needed, then opens and migrates it.
func SetUpDB(conf core.DatabaseConfig) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if err = database.Migrate(db, conf.Engine, "up"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrating database")
	}
	return db, nil
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	db, err := SetUpDB(conf.Database)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(log.New(os.Stdout, "MAIL : ", log.LstdFlags), conf)
	}
	return emailsvc.NewSendgridService(logger, conf)
}

// newNotifier logs every event and forwards them to the operator mailbox and the webhook when configured.
func newNotifier(conf *core.Config, logger core.Logger, mailSvc core.EmailService) core.Notifier {
	var email, webhook core.Notifier
	if conf.Notifications.OperatorEmail != "" {
		operator, err := mail.ParseAddress(conf.Notifications.OperatorEmail)
		if err != nil {
			logger.Fatal(fmt.Sprintf("notifications.operatorEmail: %v", err), err)
		}
		email = notifysvc.NewEmailNotifier(mailSvc, *operator)
	}
	if conf.Notifications.WebhookURL != "" {
		webhook = notifysvc.NewWebhookNotifier(logger, conf.Notifications)
	}
	return notifysvc.Fanout(notifysvc.NewConsoleNotifier(logger), email, webhook)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	return validate
}

func newCourseService(
	conf *core.Config,
	repo course.Repository,
	validate *validator.Validate,
	notifier core.Notifier,
	logger core.Logger,
) *course.Service {
	return course.NewService(repo, validate, notifier, logger, conf.Progression)
}

func newOrgService(repo org.Repository, trails trail.Repository, courses course.Repository, validate *validator.Validate) *org.Service {
	return org.NewService(repo, trails, courses, validate)
}

func newTrailService(repo trail.Repository, orgSvc *org.Service, validate *validator.Validate) *trail.Service {
	return trail.NewService(repo, orgSvc, validate)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	courseSvc *course.Service,
	trailSvc *trail.Service,
	orgSvc *org.Service,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		CourseSvc:  courseSvc,
		TrailSvc:   trailSvc,
		OrgSvc:     orgSvc,
		Validate:   validate,
		Translator: translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	return build(core.NewConfig)
}

func build(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(sqlxrepos.NewCourseRepository))
	must(c.Provide(sqlxrepos.NewTrailRepository))
	must(c.Provide(sqlxrepos.NewOrgRepository))
	must(c.Provide(newEmailService))
	must(c.Provide(newNotifier))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newCourseService))
	must(c.Provide(newOrgService))
	must(c.Provide(newTrailService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
