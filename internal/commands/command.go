package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/slotd/internal/model"
)

type Type string

const (
	TypeGoto      Type = "goto"
	TypeWeek      Type = "week"
	TypeStats     Type = "stats"
	TypeConflicts Type = "conflicts"
	TypeExport    Type = "export"
	TypeImport    Type = "import"
	TypeDone      Type = "done"
	TypeMove      Type = "move"
	TypeRename    Type = "rename"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

type GotoArgs struct {
	// Today is set for "goto today"; Date is zero then.
	Today bool
	Date  model.Date
}

type WeekArgs struct {
	// Step moves the visible week; 0 returns to the current week.
	Step int
}

type StatsArgs struct {
	Period Period
}

type ConflictsArgs struct {
	// Date is zero for the selected day.
	Date model.Date
}

type PathArgs struct {
	Path string
}

type DoneArgs struct {
	Target string
}

type MoveArgs struct {
	Target string
	Start  model.Clock
	End    model.Clock
}

type RenameArgs struct {
	Target string
	Title  string
}

type Command struct {
	Type      Type
	Raw       string
	Goto      *GotoArgs
	Week      *WeekArgs
	Stats     *StatsArgs
	Conflicts *ConflictsArgs
	Export    *PathArgs
	Import    *PathArgs
	Done      *DoneArgs
	Move      *MoveArgs
	Rename    *RenameArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, ":") {
		raw = strings.TrimSpace(raw[1:])
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeGoto:
		return parseGoto(input, args)
	case TypeWeek:
		return parseWeek(input, args)
	case TypeStats:
		return parseStats(input, args)
	case TypeConflicts:
		return parseConflicts(input, args)
	case TypeExport:
		return parsePath(input, TypeExport, args, false)
	case TypeImport:
		return parsePath(input, TypeImport, args, true)
	case TypeDone:
		return parseDone(input, args)
	case TypeMove:
		return parseMove(input, args)
	case TypeRename:
		return parseRename(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseGoto(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "goto requires YYYY-MM-DD or today"}
	}
	if strings.EqualFold(args[0], "today") {
		return Command{Type: TypeGoto, Raw: raw, Goto: &GotoArgs{Today: true}}, nil
	}
	d, err := parseDateArg(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeGoto, Raw: raw, Goto: &GotoArgs{Date: d}}, nil
}

func parseWeek(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "week requires next, prev, this or a signed offset"}
	}
	step := 0
	switch strings.ToLower(args[0]) {
	case "next":
		step = 1
	case "prev", "previous":
		step = -1
	case "this", "current":
		step = 0
	default:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid week offset: %s", args[0])}
		}
		step = n
	}
	return Command{Type: TypeWeek, Raw: raw, Week: &WeekArgs{Step: step}}, nil
}

func parseStats(raw string, args []string) (Command, error) {
	period := PeriodWeek
	if len(args) > 0 {
		period = Period(strings.ToLower(args[0]))
	}
	switch period {
	case PeriodDay, PeriodWeek, PeriodMonth:
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("stats period must be day, week or month: %s", period)}
	}
	return Command{Type: TypeStats, Raw: raw, Stats: &StatsArgs{Period: period}}, nil
}

func parseConflicts(raw string, args []string) (Command, error) {
	out := &ConflictsArgs{}
	if len(args) > 0 {
		d, err := parseDateArg(args[0])
		if err != nil {
			return Command{}, err
		}
		out.Date = d
	}
	return Command{Type: TypeConflicts, Raw: raw, Conflicts: out}, nil
}

func parsePath(raw string, typ Type, args []string, required bool) (Command, error) {
	path := strings.TrimSpace(strings.Join(args, " "))
	if path == "" && required {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a file path", typ)}
	}
	cmd := Command{Type: typ, Raw: raw}
	if typ == TypeExport {
		cmd.Export = &PathArgs{Path: path}
	} else {
		cmd.Import = &PathArgs{Path: path}
	}
	return cmd, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "done requires an occurrence id"}
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{Target: args[0]}}, nil
}

func parseMove(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "move requires an occurrence id and HH:MM-HH:MM"}
	}
	bounds := strings.SplitN(args[1], "-", 2)
	if len(bounds) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid time range: %s", args[1])}
	}
	start, err := model.ParseClock(bounds[0])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	end, err := model.ParseClock(bounds[1])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	if end <= start {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s: %s", model.ErrInvalidRange, args[1])}
	}
	return Command{Type: TypeMove, Raw: raw, Move: &MoveArgs{Target: args[0], Start: start, End: end}}, nil
}

func parseRename(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "rename requires an occurrence id and a title"}
	}
	return Command{Type: TypeRename, Raw: raw, Rename: &RenameArgs{Target: args[0], Title: strings.Join(args[1:], " ")}}, nil
}

func parseDateArg(v string) (model.Date, error) {
	d, err := model.ParseDate(v)
	if err != nil {
		if errors.Is(err, model.ErrMalformedDate) {
			return model.Date{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("expected YYYY-MM-DD, got %s", v)}
		}
		return model.Date{}, err
	}
	return d, nil
}
