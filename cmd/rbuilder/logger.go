// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"
	"path"

	"github.com/ava-labs/avalanchego/utils/logging"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/zsluedem/rbuilder/config"
)

// newLogger builds a console plus rotating-file logger at the configured
// level.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ToLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	consoleCore := logging.NewWrappedCore(level, os.Stderr, logging.Colors.ConsoleEncoder())

	rw := &lumberjack.Logger{
		Filename:   path.Join(cfg.LogDir, cfg.Name+".log"),
		MaxSize:    8, // megabytes
		MaxAge:     7, // days
		MaxBackups: 4,
	}
	fileCore := logging.NewWrappedCore(level, rw, logging.Plain.FileEncoder())

	return logging.NewLogger(cfg.Name, consoleCore, fileCore), nil
}
