package main

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	assert.ErrorContains(t, run(logger), "failed to load config")
}

func TestRun_BadScheduleReturnsAfterStoreOpened(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE", "memory")
	t.Setenv("STATS_SCHEDULE", "every now and then")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	assert.ErrorContains(t, run(logger), "failed to schedule stats")
}
