package presenter

import "github.com/dazzlefleet/dazzle/internal/jobtree"

const (
	colorReset = "\x1b[0m"
	colorGreen = "\x1b[32m"
	colorBlue  = "\x1b[34m"
	colorRed   = "\x1b[31m"
)

// activeFrames holds the animation sequence for each non-terminal state:
// Checking gets a 2-frame blink, Pre/Running/Post get 4-5 frame arrow
// sweeps, each visually distinct so an operator scanning a busy screen can
// tell stages apart at a glance.
var activeFrames = map[jobtree.State][]string{
	jobtree.Checking:    {"[ .. ]", "[    ]"},
	jobtree.PreRunning:  {"[>   ]", "[ >  ]", "[  > ]", "[   >]"},
	jobtree.Running:     {"[=   ]", "[ =  ]", "[  = ]", "[   =]", "[  = ]"},
	jobtree.PostRunning: {"[<   ]", "[ <  ]", "[  < ]", "[   <]"},
}

// terminalBadge renders the fixed badge for a terminal state.
func terminalBadge(s jobtree.State) string {
	switch s {
	case jobtree.Success:
		return colorGreen + "[ OK ]" + colorReset
	case jobtree.Skipped:
		return colorBlue + "[ ** ]" + colorReset
	case jobtree.Failed:
		return colorRed + "[ !!!! ]" + colorReset
	default:
		return "[ ?? ]"
	}
}

// activeBadge renders the animation frame for state at the given tick.
func activeBadge(s jobtree.State, tick uint64) string {
	frames := activeFrames[s]
	if len(frames) == 0 {
		return "[ ?? ]"
	}
	return frames[tick%uint64(len(frames))]
}
