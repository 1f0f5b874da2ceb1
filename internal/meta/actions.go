package meta

// ActionValue extracts the numeric value of one action type from an
// insights actions list (entries shaped {action_type, value}). The first
// matching entry wins; duplicates are not aggregated. Missing lists,
// missing matches and unparseable values all yield 0.
func ActionValue(actions any, actionType string) float64 {
	list, ok := actions.([]any)
	if !ok || len(list) == 0 {
		return 0
	}
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if toString(entry["action_type"]) != actionType {
			continue
		}
		return toFloat(entry["value"])
	}
	return 0
}
