// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/compass_computer/internal/heading"
)

func RunMockConsole() error {
	src := heading.NewMockSource()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		sample, err := src.Next()
		if err != nil {
			return err
		}

		fmt.Printf(
			"X=%8.1f  Y=%8.1f  Z=%8.1f mG  HDG=%6.1f\n",
			sample.X,
			sample.Y,
			sample.Z,
			sample.HeadingDeg,
		)
	}
	return nil
}
