package remote

import (
	"sort"

	"github.com/samber/lo"

	"github.com/lain-code/lain/internal/model"
)

func sortedProjects(byFolder map[string]model.ProjectEntry) []model.ProjectEntry {
	projects := lo.Values(byFolder)
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Folder < projects[j].Folder
	})
	return projects
}
