package version

import (
	"fmt"

	"github.com/castor-cli/castor/color"
	"github.com/castor-cli/castor/constant"
	"github.com/castor-cli/castor/key"
	"github.com/castor-cli/castor/style"
	"github.com/castor-cli/castor/util"
	"github.com/spf13/viper"
)

// Notify displays a terminal alert if a more recent stable application version is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable("Checking if new version is available...")
	version, err := Latest()
	erase()
	if err == nil {
		comp, err := Compare(version, constant.Version)
		if err == nil && comp <= 0 {
			return
		}
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/castor-cli/castor/releases/tag/v"+version),
	)
}
