package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/settings"
)

// setMaintenance flips the flag straight in storage. Running API instances see it on their next read.
func (cli *commandLine) setMaintenance(on bool) error {
	ctx := context.Background()
	s, err := cli.settings.GetSettings(ctx)
	if err != nil {
		if errors.Cause(err) != settings.ErrNotFound {
			return err
		}
		s = settings.Defaults()
	}
	s.UnderMaintenance = on
	if _, err = cli.settings.SaveSettings(ctx, s); err != nil {
		return err
	}
	fmt.Printf("under maintenance: %t\n", on)
	return nil
}
