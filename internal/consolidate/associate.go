package consolidate

import "github.com/andralbr/dataEvaluation/internal/model"

// Tagged is an interval together with the toolboxes used during it.
type Tagged struct {
	Interval  model.Interval
	Toolboxes []string
}

// Associate groups a batch of tagged intervals by toolbox and merges each
// group. Toolboxes are returned in the order they are first seen in the
// batch; intervals keep batch order before merging.
func Associate(batch []Tagged) []model.ToolboxWindow {
	var order []string
	groups := make(map[string][]model.Interval)

	for _, t := range batch {
		seen := make(map[string]struct{}, len(t.Toolboxes))
		for _, tbx := range t.Toolboxes {
			// A process listing a toolbox twice still used it once.
			if _, dup := seen[tbx]; dup {
				continue
			}
			seen[tbx] = struct{}{}
			if _, ok := groups[tbx]; !ok {
				order = append(order, tbx)
			}
			groups[tbx] = append(groups[tbx], t.Interval)
		}
	}

	windows := make([]model.ToolboxWindow, 0, len(order))
	for _, tbx := range order {
		windows = append(windows, model.ToolboxWindow{
			Toolbox:   tbx,
			Intervals: Merge(groups[tbx]),
		})
	}
	return windows
}
