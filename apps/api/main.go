package main

import (
	"log"
	"os"
	"time"

	echoapi "github.com/rcos-io/portal/apps/api/echo"
	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/meeting"
	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/semester"
	"github.com/rcos-io/portal/core/smallgroup"
	"github.com/rcos-io/portal/core/statusupdate"
	"github.com/rcos-io/portal/core/user"
	discordsvc "github.com/rcos-io/portal/services/discord"
	emailsvc "github.com/rcos-io/portal/services/email"
	githubsvc "github.com/rcos-io/portal/services/github"
	logsvc "github.com/rcos-io/portal/services/logger"
	"github.com/rcos-io/portal/storage/database"
	sqlxrepos "github.com/rcos-io/portal/storage/database/sqlx"
)

func main() {
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile), core.Conf)

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()
	if err = database.Migrate(db); err != nil {
		logger.Fatal("migrating database", err)
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	discordSvc, err := discordsvc.NewService(core.Conf)
	if err != nil {
		logger.Fatal("setting up discord service", err)
	}
	githubSvc := githubsvc.NewService(core.Conf)
	cache := core.NewCache(24 * time.Hour)

	usrRepo := sqlxrepos.NewUserRepository(db)
	enrRepo := sqlxrepos.NewEnrollmentRepository(db)
	projRepo := sqlxrepos.NewProjectRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc, logger)
	semSvc := semester.NewService(sqlxrepos.NewSemesterRepository(db), cache)
	enrSvc := enrollment.NewService(enrRepo)
	projSvc := project.NewService(projRepo, enrRepo, discordSvc, githubSvc, logger)
	mtgSvc := meeting.NewService(sqlxrepos.NewMeetingRepository(db), discordSvc, logger)
	sgSvc := smallgroup.NewService(sqlxrepos.NewSmallGroupRepository(db), discordSvc, logger)
	suSvc := statusupdate.NewService(sqlxrepos.NewStatusUpdateRepository(db))

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:         core.Conf.Server.Address(),
			UserSvc:         usrSvc,
			SemesterSvc:     semSvc,
			EnrollmentSvc:   enrSvc,
			ProjectSvc:      projSvc,
			MeetingSvc:      mtgSvc,
			SmallGroupSvc:   sgSvc,
			StatusUpdateSvc: suSvc,
			AccountLinker:   discordSvc,
			Cache:           cache,
			Logger:          logger,
		},
	)
	app.Start()
}
