package budget

import (
	"paisa/internal/core"
)

// Simulate applies a what-if scenario to a deep copy of the base view
// and re-derives every downstream metric. The base DTO is never
// touched; callers can diff the two views safely.
func (e *Engine) Simulate(base core.BudgetDTO, scenario core.WhatIfScenario) (core.BudgetDTO, error) {
	if err := scenario.Validate(); err != nil {
		return core.BudgetDTO{}, err
	}

	sim := base.Clone()
	for _, ch := range scenario.Changes {
		switch ch.Kind {
		case core.ChangeTotalLimit:
			limit := ch.Value
			if limit < 0 {
				limit = 0
			}
			sim.Config.TotalLimit = limit
		case core.ChangeMode:
			sim.Config.Mode = ch.Mode
		case core.ChangeCategoryLimit:
			limit := ch.Value
			if limit < 0 {
				limit = 0
			}
			// Unknown categories are skipped, not invented.
			for i := range sim.Categories {
				if sim.Categories[i].Category != ch.Category {
					continue
				}
				row := categoryRow(ch.Category, limit, sim.Categories[i].Spent)
				sim.Categories[i] = row
				if sim.Config.CategoryLimits == nil {
					sim.Config.CategoryLimits = map[string]int{}
				}
				sim.Config.CategoryLimits[ch.Category] = limit
				break
			}
		}
	}

	return e.derive(sim.Config, sim.Categories), nil
}
