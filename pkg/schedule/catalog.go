package schedule

// Strategy describes a Kind for the strategy picker and the info cards.
type Strategy struct {
	Kind        Kind     `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	BestFor     []string `json:"bestFor" yaml:"best_for"`
	Limitations []string `json:"limitations" yaml:"limitations"`
}

// Info returns the catalog entry for k.
func Info(k Kind) Strategy {
	switch k {
	case SPT:
		return Strategy{
			Kind:        SPT,
			Name:        "Shortest Processing Time",
			Description: "Sort tasks from shortest to longest duration",
			BestFor: []string{
				"Maximizing the number of completed tasks",
				"When all tasks have similar importance",
				"When you want to build momentum with quick wins",
			},
			Limitations: []string{
				"Important tasks might be delayed if they take longer",
				"Doesn't consider deadlines",
			},
		}
	case EDF:
		return Strategy{
			Kind:        EDF,
			Name:        "Earliest Deadline First",
			Description: "Prioritize tasks with the closest deadlines",
			BestFor: []string{
				"Meeting important deadlines",
				"Time-sensitive projects",
				"When late tasks have significant consequences",
			},
			Limitations: []string{
				"Short tasks might be delayed despite being quick wins",
				"Doesn't consider importance directly",
			},
		}
	case WSPT:
		return Strategy{
			Kind:        WSPT,
			Name:        "Weighted Shortest Job First",
			Description: "Balance duration with importance for optimal value delivery",
			BestFor: []string{
				"Balancing efficiency with importance",
				"Maximizing value per time spent",
				"Mixed priority environments",
			},
			Limitations: []string{
				"Complexity in calculating the perfect weight between factors",
				"May not respect hard deadlines",
			},
		}
	case FCFS:
		return Strategy{
			Kind:        FCFS,
			Name:        "First Come First Served",
			Description: "Complete tasks in the order they were added",
			BestFor: []string{
				"Sequential dependencies",
				"When fairness in order is important",
				"Simple workflows",
			},
			Limitations: []string{
				"No optimization for importance or urgency",
				"Can be inefficient for time management",
			},
		}
	case HPF:
		return Strategy{
			Kind:        HPF,
			Name:        "Highest Priority First",
			Description: "Tackle the most important tasks first",
			BestFor: []string{
				"When task importance varies significantly",
				"High-value deliverables",
				"Strategic prioritization",
			},
			Limitations: []string{
				"May ignore quick wins",
				"Doesn't consider deadlines directly",
			},
		}
	case CR:
		return Strategy{
			Kind:        CR,
			Name:        "Critical Ratio",
			Description: "Balance deadline proximity with processing time",
			BestFor: []string{
				"Complex project management",
				"Balancing deadline and duration",
				"Managing time-sensitive workloads",
			},
			Limitations: []string{
				"More complex to understand",
				"Requires accurate duration estimates",
			},
		}
	}
	return Strategy{Kind: k, Name: k.String()}
}

// Catalog returns the info for every strategy in order.
func Catalog() []Strategy {
	out := make([]Strategy, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, Info(k))
	}
	return out
}
