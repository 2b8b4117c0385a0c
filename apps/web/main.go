package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/apps/web/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/dashboard"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/subject"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/services/email"
	"github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage/database"
	sqlxrepos "github.com/trezcool/gradebook/storage/database/sqlx"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		_, _ = os.Stderr.WriteString("loading config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(os.Stdout, conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, conf, logger)
	stop()
	if err != nil {
		logger.Error("web server failed", err)
	}
	logger.Close() // flush rollbar before exiting
	if err != nil {
		os.Exit(1)
	}
}

// run serves the app until ctx is done or the server fails. Resources are released before it returns.
func run(ctx context.Context, conf *core.Config, logger core.Logger) error {
	db, err := database.Open(conf)
	if err != nil {
		return err
	}
	defer db.Close()

	// an interrupt must not abort a migration halfway
	if err = database.Migrate(context.WithoutCancel(ctx), db, !conf.Debug); err != nil {
		return err
	}

	// set up services
	studentRepo := sqlxrepos.NewStudentRepository(db)
	subjectRepo := sqlxrepos.NewSubjectRepository(db)
	studentSvc := student.NewService(studentRepo)
	subjectSvc := subject.NewService(subjectRepo)
	gradeSvc := grade.NewService(sqlxrepos.NewGradeRepository(db), studentRepo, subjectRepo)

	validate, translator := core.NewValidator()
	app, err := echoweb.NewServer(&echoweb.Options{
		Address:        conf.Server.Address,
		SecretKey:      conf.SecretKey,
		Debug:          conf.Debug,
		TestMode:       conf.TestMode,
		DisableReqLogs: conf.TestMode,
		CookieSecure:   conf.Server.CookieSecure,
		SessionMaxAge:  conf.Server.SessionMaxAge,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		HealthCheck:    db.PingContext,
		UserSvc:        user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewService(conf, logger)),
		StudentSvc:     studentSvc,
		SubjectSvc:     subjectSvc,
		GradeSvc:       gradeSvc,
		DashboardSvc:   dashboard.NewService(sqlxrepos.NewStatsRepository(db), studentSvc, subjectSvc, gradeSvc),
	})
	if err != nil {
		return errors.Wrap(err, "setting up web server")
	}

	// start web server
	errc := make(chan error, 1)
	go func() {
		logger.Info("starting web server", map[string]interface{}{"address": conf.Server.Address, "env": conf.Env})
		errc <- app.Start()
	}()

	select {
	case err = <-errc:
		return errors.Wrap(err, "web server stopped")
	case <-ctx.Done():
		logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Wrap(app.Stop(shutdownCtx), "graceful shutdown")
	}
}
