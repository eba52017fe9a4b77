package agent

import (
	"fmt"

	"mytubes/category"
	"mytubes/internal/logging"
)

// Executor applies command batches to a category collection. Save and
// Refresh run once per batch, after every command has been applied, no
// matter how many commands mutated the collection.
type Executor struct {
	Collection *category.Collection
	Save       func()
	Refresh    func()
}

// Execute runs the commands in order and returns one result line per
// command. Failed commands report in place without stopping the batch.
func (e *Executor) Execute(cmds []Command) []string {
	results := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		results = append(results, e.apply(cmd))
	}

	if e.Save != nil {
		e.Save()
	}
	if e.Refresh != nil {
		e.Refresh()
	}
	return results
}

func (e *Executor) apply(cmd Command) string {
	switch cmd.Action {
	case ActionCreateCategory:
		e.Collection.Ensure(cmd.Name)
		logging.Info("agent created category", "name", cmd.Name)
		return fmt.Sprintf("Created category %q", cmd.Name)

	case ActionDeleteCategory:
		cat := e.Collection.ByID(cmd.ID)
		if cat == nil {
			return fmt.Sprintf("Category %q not found", cmd.ID)
		}
		name := cat.Name
		e.Collection.Delete(cmd.ID)
		logging.Info("agent deleted category", "id", cmd.ID)
		return fmt.Sprintf("Deleted category %q", name)

	case ActionRenameCategory:
		cat := e.Collection.ByID(cmd.ID)
		if cat == nil {
			return fmt.Sprintf("Category %q not found", cmd.ID)
		}
		oldName := cat.Name
		e.Collection.Rename(cmd.ID, cmd.Name)
		logging.Info("agent renamed category", "id", cmd.ID, "name", cmd.Name)
		return fmt.Sprintf("Renamed %q to %q", oldName, cmd.Name)

	case ActionAssignChannels:
		target := e.Collection.ByID(cmd.CategoryID)
		if target == nil {
			return fmt.Sprintf("Category %q not found", cmd.CategoryID)
		}
		for _, channelID := range cmd.ChannelIDs {
			e.Collection.Assign(channelID, cmd.CategoryID)
		}
		logging.Info("agent assigned channels", "count", len(cmd.ChannelIDs), "category", cmd.CategoryID)
		return fmt.Sprintf("Assigned %d channel(s) to %q", len(cmd.ChannelIDs), target.Name)

	default:
		return fmt.Sprintf("Unknown action: %s", cmd.Action)
	}
}
