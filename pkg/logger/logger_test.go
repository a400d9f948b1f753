package logger

import (
	"bytes"
	"errors"
	"fmt"
	rawslog "log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type testMethod struct {
	fn    func(msg string, args ...any)
	level string
}

var (
	LogText         = "Test Log Value"
	CustomFieldName = "SomeKey"
	CustomFieldVal  = "SomeVal"
)

type testLogJSON struct {
	Time      time.Time `json:"time"`
	Level     string    `json:"level"`
	Msg       string    `json:"msg"`
	Message   string    `json:"message"`
	CustomVal any       `json:"SomeKey"`
}

func TestSlogLogger(t *testing.T) {
	buffer := bytes.NewBuffer([]byte{})

	// level needs to be set to debug for log all
	handler := rawslog.NewJSONHandler(buffer, &rawslog.HandlerOptions{Level: rawslog.LevelDebug})
	logger := New(handler)

	testMethods := []testMethod{
		{fn: logger.Error, level: rawslog.LevelError.String()},
		{fn: logger.Warn, level: rawslog.LevelWarn.String()},
		{fn: logger.Info, level: rawslog.LevelInfo.String()},
		{fn: logger.Debug, level: rawslog.LevelDebug.String()},
	}

	for _, v := range testMethods {
		t.Run(fmt.Sprintf("testing %s", v.level), func(t *testing.T) {
			buffer.Reset()
			v.fn(LogText, CustomFieldName, CustomFieldVal)

			got := new(testLogJSON)
			require.NoError(t, json.Unmarshal(buffer.Bytes(), got))
			require.Equal(t, v.level, got.Level)
			require.Equal(t, LogText, got.Msg)
			require.Equal(t, CustomFieldVal, got.CustomVal)
		})
	}
}

func TestZerologLogger(t *testing.T) {
	buffer := bytes.NewBuffer([]byte{})
	logger, err := NewZerolog().FromBuffer(buffer).WithLevel("debug").Make()
	require.NoError(t, err)

	testMethods := []testMethod{
		{fn: logger.Error, level: "error"},
		{fn: logger.Warn, level: "warn"},
		{fn: logger.Info, level: "info"},
		{fn: logger.Debug, level: "debug"},
	}

	for _, v := range testMethods {
		t.Run(fmt.Sprintf("testing %s", v.level), func(t *testing.T) {
			buffer.Reset()
			v.fn(LogText, CustomFieldName, CustomFieldVal)

			got := new(testLogJSON)
			require.NoError(t, json.Unmarshal(buffer.Bytes(), got))
			require.Equal(t, v.level, got.Level)
			require.Equal(t, LogText, got.Message)
			require.Equal(t, CustomFieldVal, got.CustomVal)
		})
	}
}

func TestZerologLogger_LevelAndErrors(t *testing.T) {
	buffer := bytes.NewBuffer([]byte{})
	logger, err := NewZerolog().FromBuffer(buffer).Make()
	require.NoError(t, err)

	logger.Debug("hidden")
	require.Equal(t, 0, buffer.Len())

	logger.Warn("download failed", "file", "a.txt", "err", errors.New("boom"), "dangling")
	require.Contains(t, buffer.String(), `"err":"boom"`)
	require.Contains(t, buffer.String(), `"file":"a.txt"`)
	require.Contains(t, buffer.String(), `"!BADKEY":"dangling"`)
}

func TestZerologLogger_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.log")
	logger, err := NewZerolog().FromPath(path).Make()
	require.NoError(t, err)

	logger.Info("Test")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Test")
}
