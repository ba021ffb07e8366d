package main

import (
	"log"
	"net/mail"
	"os"

	"github.com/go-playground/validator/v10"

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

var logger core.Logger

func main() {
	conf := core.NewConfig()

	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf.Database))
	db, err := database.Open(conf.Database)
	errAndDie(err)

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	notifiers := []core.Notifier{notifysvc.NewConsoleNotifier(logger)}
	if conf.Notifications.OperatorEmail != "" {
		var mailSvc core.EmailService
		if conf.Debug {
			mailSvc = emailsvc.NewConsoleService(log.New(os.Stdout, "MAIL : ", log.LstdFlags), conf)
		} else {
			mailSvc = emailsvc.NewSendgridService(logger, conf)
		}
		operator, err := mail.ParseAddress(conf.Notifications.OperatorEmail)
		errAndDie(err)
		notifiers = append(notifiers, notifysvc.NewEmailNotifier(mailSvc, *operator))
	}

	courseRepo := sqlxrepos.NewCourseRepository(db)
	trailRepo := sqlxrepos.NewTrailRepository(db)
	orgSvc := org.NewService(sqlxrepos.NewOrgRepository(db), trailRepo, courseRepo, validate)

	// start CLI
	cli := commandLine{
		conf:      conf,
		db:        db,
		courseSvc: course.NewService(courseRepo, validate, notifysvc.Fanout(notifiers...), logger, conf.Progression),
		trailSvc:  trail.NewService(trailRepo, orgSvc, validate),
		in:        os.Stdin,
		out:       os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
