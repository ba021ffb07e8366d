package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) progress(orgID, memberID string) error {
	prog, err := cli.trailSvc.ActiveProgress(context.Background(), orgID, memberID)
	if err != nil {
		return err
	}
	if prog.TrailID == "" {
		fmt.Fprintf(cli.out, "organization %s has no active trail\n", orgID)
		return nil
	}
	fmt.Fprintf(cli.out, "trail %s: %d/%d steps (%.1f%%)\n", prog.TrailID, prog.CompletedSteps, prog.TotalSteps, prog.Percentage)
	for i, st := range prog.Stages {
		marker := " "
		if i == prog.CurrentStageIndex {
			marker = ">"
		}
		fmt.Fprintf(cli.out, "%s %d. %s: %d/%d\n", marker, i+1, st.Title, st.CompletedSteps, st.TotalSteps)
	}
	return nil
}
