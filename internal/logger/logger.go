// Package logger はアプリケーション全体で使うJSON構造化ロガーを組み立てる。
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ServiceName は全ログに付与するserviceフィールドの値。
const ServiceName = "aia-action"

// ParseLevel はLOG_LEVELの値をslog.Levelに変換する。
// 大文字小文字は区別せず、空文字列はINFO、WARNINGはWARNとして扱う。
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "":
		return slog.LevelInfo, nil
	case "WARNING":
		return slog.LevelWarn, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
	return level, nil
}

// Setup はlevel以上を出力するJSONロガーを返す。
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", ServiceName))
}

// SetupDefault はSetupのロガーをslogのデフォルトに設定する。wがnilならos.Stdoutに出す。
func SetupDefault(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := Setup(w, level)
	slog.SetDefault(l)
	return l
}
