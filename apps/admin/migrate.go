package main

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

// commands taking a target version
var versionedCommands = map[string]bool{"up-to": true, "down-to": true}

func (cli *commandLine) migrate(args []string) error {
	command, rest := args[0], args[1:]
	if versionedCommands[command] {
		if len(rest) == 0 {
			return errors.Errorf("migrate %s VERSION: missing version", command)
		}
		if _, err := strconv.ParseInt(rest[0], 10, 64); err != nil {
			return errors.Errorf("migrate %s: invalid version %q", command, rest[0])
		}
	}
	return gooseRunFunc(context.Background(), cli.db, command, rest...)
}
