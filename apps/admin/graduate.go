package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core/course"
)

func (cli *commandLine) graduate(courseID string, concurrency int, yes bool) error {
	ctx := context.Background()
	c, err := cli.courseSvc.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !yes {
		enrollments, err := cli.courseSvc.Enrollments(ctx, c.ID)
		if err != nil {
			return err
		}
		ok, err := cli.confirm(fmt.Sprintf("Graduate %d member(s) of %q (%s)?", len(enrollments), c.Title, c.Status))
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	res, err := cli.courseSvc.GraduateCourse(ctx, operator(c.OrganizationID), c.ID, concurrency)
	cli.printResult(res)
	return err
}

func (cli *commandLine) retry(courseID string, memberIDs []string, concurrency int) error {
	ctx := context.Background()
	c, err := cli.courseSvc.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	res, err := cli.courseSvc.RetryGraduation(ctx, operator(c.OrganizationID), c.ID, memberIDs, concurrency)
	cli.printResult(res)
	return err
}

func (cli *commandLine) printResult(res course.GraduationResult) {
	if res.CourseID == "" {
		return
	}
	fmt.Fprintf(cli.out, "course %s: %s\n", res.CourseID, res.Status)
	fmt.Fprintf(cli.out, "  graduated: %d\n", len(res.Succeeded))
	if len(res.Failed) == 0 {
		return
	}
	fmt.Fprintf(cli.out, "  failed: %d\n", len(res.Failed))
	for _, f := range res.Failed {
		fmt.Fprintf(cli.out, "    %s: %v\n", f.MemberID, errors.Cause(f.Err))
	}
	fmt.Fprintf(cli.out, "retry with: admin retry -course %s -members %s\n", res.CourseID, strings.Join(res.FailedMembers(), ","))
}
