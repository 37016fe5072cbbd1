package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/bootstrap"
	"github.com/Pseudotools/pseudorandom-worker/internal/config"
)

func main() {
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse config")
	}
	config.ConfigureLogging(cfg)

	worker, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialise worker")
	}
	defer worker.Close()

	lambda.Start(worker.Handler.HandleSQSEvent)
}
