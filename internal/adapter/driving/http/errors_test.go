package httphandler_test

import (
	"errors"
	"time"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
)

func upstreamErr() error {
	return apperror.Upstream("github", errors.New("github responded 500: Server Error"))
}

func timeoutErr() error {
	return apperror.Timeout("github.listInstallationRepositories", 30*time.Second)
}
