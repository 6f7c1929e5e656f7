package main

import (
	"context"

	"github.com/crewhq/brigade/core/quiz"
)

func (cli *commandLine) resetAttempts(traineeID, testID string) error {
	return quiz.ResetAttempts(context.Background(), cli.attemptRepo, traineeID, testID)
}
