package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/ecclesia/apps/api/echo"
	"github.com/trezcool/ecclesia/core"
)

const defaultTokenTTL = 24 * time.Hour

// token prints a signed API token for development and support.
func (cli *commandLine) token(memberID, orgID string, caps []string, ttl time.Duration) error {
	caller := core.Caller{
		MemberID:       memberID,
		OrganizationID: orgID,
		Capabilities:   core.ParseCapabilities(caps),
	}
	for _, c := range caller.Capabilities {
		if !isCapability(c) {
			return core.NewValidationError(errors.Errorf("unknown capability %q", c))
		}
	}
	token, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, caller, ttl))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

func isCapability(c core.Capability) bool {
	for _, known := range core.AllCapabilities {
		if c == known {
			return true
		}
	}
	return false
}
