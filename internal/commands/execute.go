package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Goto      func(GotoArgs) (Result, error)
	Week      func(WeekArgs) (Result, error)
	Stats     func(StatsArgs) (Result, error)
	Conflicts func(ConflictsArgs) (Result, error)
	Export    func(PathArgs) (Result, error)
	Import    func(PathArgs) (Result, error)
	Done      func(DoneArgs) (Result, error)
	Move      func(MoveArgs) (Result, error)
	Rename    func(RenameArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeGoto:
		if handlers.Goto == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Goto(*cmd.Goto)
	case TypeWeek:
		if handlers.Week == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Week(*cmd.Week)
	case TypeStats:
		if handlers.Stats == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Stats(*cmd.Stats)
	case TypeConflicts:
		if handlers.Conflicts == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Conflicts(*cmd.Conflicts)
	case TypeExport:
		if handlers.Export == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Export(*cmd.Export)
	case TypeImport:
		if handlers.Import == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Import(*cmd.Import)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Done(*cmd.Done)
	case TypeMove:
		if handlers.Move == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Move(*cmd.Move)
	case TypeRename:
		if handlers.Rename == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Rename(*cmd.Rename)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
