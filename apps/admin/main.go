package main

import (
	"context"
	"log"
	"os"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/attendance"
	"github.com/gakuseki/gakuseki/core/student"
	"github.com/gakuseki/gakuseki/core/teacher"
	"github.com/gakuseki/gakuseki/core/user"
	logsvc "github.com/gakuseki/gakuseki/services/logger"
	"github.com/gakuseki/gakuseki/storage"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	store, closer, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal("setting up store", err)
	}

	teacherSvc := teacher.NewService(store)
	attSvc := attendance.NewService(store)
	cli := &commandLine{
		conf:       conf,
		logger:     logger,
		usrSvc:     user.NewService(store),
		studentSvc: student.NewService(store, teacherSvc, attSvc),
	}

	err = cli.run(os.Args)
	if cErr := closer.Close(); cErr != nil {
		logger.Error("closing store", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
