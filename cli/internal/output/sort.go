package output

import (
	"sort"

	"github.com/samber/lo"

	"github.com/lain-code/lain/internal/model"
)

// sortModelCounts orders by count descending, then name
func sortModelCounts(rows []model.ModelCount) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Model < rows[j].Model
	})
}

// sortedModelNames returns the model keys most used first
func sortedModelNames(models map[string]int) []string {
	rows := lo.MapToSlice(models, func(name string, count int) model.ModelCount {
		return model.ModelCount{Model: name, Count: count}
	})
	sortModelCounts(rows)
	return lo.Map(rows, func(m model.ModelCount, _ int) string { return m.Model })
}
