package trackhistory

import "aircraft_db/internal/db"

// argset collects bound arguments and hands back the backend's placeholder
// for each, so statements read the same over both dialects.
type argset struct {
	adapter db.Adapter
	args    []any
}

func (r *Repository) newArgs() *argset {
	return &argset{adapter: r.adapter}
}

func (a *argset) add(v any) string {
	a.args = append(a.args, v)
	return a.adapter.Placeholder(len(a.args))
}
