package action

import (
	"strconv"
	"strings"

	"github.com/amiable-dev/midimon/config"
)

// evalPredicate resolves a Conditional's guard against live Context. It
// never has side effects (spec §4.E "predicates are read-only").
func evalPredicate(p *config.Predicate, ctx Context) bool {
	switch p.Kind {
	case config.PredicateMode:
		return ctx.ActiveMode == p.ModeEquals

	case config.PredicateTimeOfDay:
		now := ctx.Now()
		cur := now.Hour()*60 + now.Minute()
		after, okA := parseHHMM(p.After)
		before, okB := parseHHMM(p.Before)
		if okA && cur < after {
			return false
		}
		if okB && cur >= before {
			return false
		}
		return true

	case config.PredicateFrontmostApp:
		if ctx.FrontmostApp == nil {
			return false
		}
		return strings.EqualFold(ctx.FrontmostApp(), p.AppEquals)

	case config.PredicateStateVar:
		if ctx.StateVar == nil {
			return false
		}
		v, ok := ctx.StateVar(p.VarName)
		return ok && v == p.VarEquals

	default:
		return false
	}
}

func parseHHMM(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil {
		return 0, false
	}
	return h*60 + m, true
}
