package cmn

// Rom ("runtime operation mode") gates expensive log formatting behind a
// per-module verbosity level, the same role the teacher's cmn.Rom.FastV
// plays in hot paths like wikilink scanning and grep.
type romT struct{}

var Rom romT

const (
	SmoduleLinkIdx   = "linkidx"
	SmoduleSearchIdx = "searchidx"
	SmoduleDispatch  = "dispatch"
	SmoduleMCP       = "mcp"
	SmoduleStore     = "store"
)

// FastV reports whether module is configured to log at level or above.
// Absence from the config's Verbosity map means "off" (level 0 passes,
// anything higher is suppressed) -- the common case in production.
func (romT) FastV(level int, module string) bool {
	cfg := GCO.Get()
	if cfg == nil || cfg.Verbosity == nil {
		return level <= 0
	}
	v, ok := cfg.Verbosity[module]
	if !ok {
		return level <= 0
	}
	return level <= v
}
