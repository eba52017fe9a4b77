// Package agent turns chat-driven category requests into executed commands.
// A model replies with prose plus an optional fenced JSON block of actions;
// this package parses the block and applies each action to the collection.
package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"mytubes/internal/logging"
)

// Action tags the model may emit. Anything else reports as unknown.
const (
	ActionCreateCategory = "create_category"
	ActionDeleteCategory = "delete_category"
	ActionRenameCategory = "rename_category"
	ActionAssignChannels = "assign_channels"
)

// Command is one operation from the model's action block. Which fields are
// meaningful depends on Action: create uses Name, delete uses ID, rename
// uses ID and Name, assign uses ChannelIDs and CategoryID.
type Command struct {
	Action     string   `json:"action"`
	Name       string   `json:"name,omitempty"`
	ID         string   `json:"id,omitempty"`
	ChannelIDs []string `json:"channelIds,omitempty"`
	CategoryID string   `json:"categoryId,omitempty"`
}

var actionsFence = regexp.MustCompile("```actions\\s*([\\s\\S]*?)```")

// ParseActions extracts the fenced action block from a model reply. A reply
// without a block, or with one that is not valid JSON, yields no commands.
func ParseActions(reply string) []Command {
	m := actionsFence.FindStringSubmatch(reply)
	if m == nil {
		return nil
	}
	var cmds []Command
	if err := json.Unmarshal([]byte(m[1]), &cmds); err != nil {
		logging.Warn("discarding malformed action block", "err", err)
		return nil
	}
	return cmds
}

// ExtractExplanation returns the reply text outside the action block.
func ExtractExplanation(reply string) string {
	return strings.TrimSpace(actionsFence.ReplaceAllString(reply, ""))
}
