package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ecclesia/core"
)

const (
	memberParam      = "member"
	dateParam        = "date"
	forceParam       = "force"
	concurrencyParam = "concurrency"

	dateLayout = "2006-01-02"
)

type (
	// memberRequest names the member an action is made for, the caller when empty.
	memberRequest struct {
		MemberID string `json:"memberId"`
	}

	answerRequest struct {
		MemberID    string `json:"memberId"`
		ChosenIndex *int   `json:"chosenIndex"`
	}

	attendanceRequest struct {
		MemberID string `json:"memberId"`
		Date     string `json:"date"`
		Present  bool   `json:"present"`
	}

	retryRequest struct {
		MemberIDs []string `json:"memberIds"`
	}

	updateLessonRequest struct {
		Title         *string `json:"title"`
		Content       *string `json:"content"`
		PassThreshold *int    `json:"passThreshold"`
		Order         *int    `json:"order"`
	}
)

// bindMember returns the member named by the `member` query param, or the caller.
func bindMember(ctx echo.Context, caller core.Caller) string {
	if m := strings.TrimSpace(ctx.QueryParam(memberParam)); m != "" {
		return m
	}
	return caller.MemberID
}

func (req memberRequest) member(caller core.Caller) string {
	if m := strings.TrimSpace(req.MemberID); m != "" {
		return m
	}
	return caller.MemberID
}

func bindBool(ctx echo.Context, name string) (bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a boolean"})
	}
	return b, nil
}

// bindInt returns the integer query param `name`, 0 when absent.
func bindInt(ctx echo.Context, name string) (int, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a positive integer"})
	}
	return i, nil
}

// parseDate parses a calendar day (YYYY-MM-DD), today when empty.
func parseDate(val string) (time.Time, error) {
	if val == "" {
		return core.Day(nowFunc()), nil
	}
	d, err := time.Parse(dateLayout, val)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: dateParam, Error: "must be formatted as YYYY-MM-DD"})
	}
	return d, nil
}
