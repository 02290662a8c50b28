package gate

import (
	"time"

	"releaseguard.app/guard/internal/model"
)

// IsBranchBlocked reports whether some window for branch covers at, bounds inclusive.
// Windows for other branches, expired windows and future windows are ignored.
func IsBranchBlocked(branch string, at time.Time, windows []model.BlockWindow) bool {
	_, ok := ActiveWindow(branch, at, windows)
	return ok
}

// ActiveWindow returns the first window for branch that covers at.
func ActiveWindow(branch string, at time.Time, windows []model.BlockWindow) (model.BlockWindow, bool) {
	for _, w := range windows {
		if w.Branch == branch && w.Covers(at) {
			return w, true
		}
	}
	return model.BlockWindow{}, false
}
