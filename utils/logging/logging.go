package logging

import (
	"log/slog"
)

type LogCode string

const (
	// SYSTEM EVENTS (SYSTEM*)
	SYSTEM LogCode = "SYSTEM"

	// AUTH OPERATIONS (AUTH*)
	AUTH_LOGIN     LogCode = "AUTH_LOGIN"
	AUTH_SIGNUP    LogCode = "AUTH_SIGNUP"
	AUTH_PROVISION LogCode = "AUTH_PROVISION"

	// CLUB CONTENT OPERATIONS
	COLLECTION_CREATE LogCode = "COLLECTION_CREATE"
	COLLECTION_DELETE LogCode = "COLLECTION_DELETE"
	COLLECTION_SHARE  LogCode = "COLLECTION_SHARE"
	COACH_ASSIGN      LogCode = "COACH_ASSIGN"
	NOTE_WRITE        LogCode = "NOTE_WRITE"
)

// VictoriaLogs has fixed field name for time (_time) and message(_msg). This function maps fields msg -> _msg and time -> _time.
func convertKeysToVictoriaLogs(keys []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{Key: "_time", Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05"))}
	}
	if a.Key == slog.MessageKey {
		return slog.Attr{Key: "_msg", Value: a.Value}
	}
	return a
}

func GetVictoriaLogsOptions(addSource bool) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: convertKeysToVictoriaLogs,
		AddSource:   addSource,
	}
}
